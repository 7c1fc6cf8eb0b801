package conf

import (
	"encoding/json"
	"fmt"
	"time"
)

// Bootstrap is the root of configs/config.yaml.
type Bootstrap struct {
	Server   *Server   `json:"server"`
	Data     *Data     `json:"data"`
	Vision   *Vision   `json:"vision"`
	Analysis *Analysis `json:"analysis"`
}

type Server struct {
	HTTP     *Server_HTTP `json:"http"`
	GRPC     *Server_GRPC `json:"grpc"`
	LogLevel string       `json:"log_level"`
}

type Server_HTTP struct {
	Network string   `json:"network"`
	Addr    string   `json:"addr"`
	Timeout Duration `json:"timeout"`
}

type Server_GRPC struct {
	Network string   `json:"network"`
	Addr    string   `json:"addr"`
	Timeout Duration `json:"timeout"`
}

type Data struct {
	Database *Data_Database `json:"database"`
	Redis    *Data_Redis    `json:"redis"`
	Cache    *Data_Cache    `json:"cache"`
}

type Data_Database struct {
	Driver string              `json:"driver"`
	Source string              `json:"source"` // empty disables history
	Pool   *Data_Database_Pool `json:"pool"`
}

type Data_Database_Pool struct {
	MaxOpenConns    int32 `json:"max_open_conns"`
	MinIdleConns    int32 `json:"min_idle_conns"`
	MaxConnLifetime int32 `json:"max_conn_lifetime"`  // minutes
	MaxConnIdleTime int32 `json:"max_conn_idle_time"` // minutes
}

type Data_Redis struct {
	URL          string   `json:"url"` // empty disables the result cache
	ReadTimeout  Duration `json:"read_timeout"`
	WriteTimeout Duration `json:"write_timeout"`
}

type Data_Cache struct {
	TTL            Duration `json:"ttl"`
	BloomKey       string   `json:"bloom_key"`
	BloomBits      uint     `json:"bloom_bits"`
	BloomHashFuncs uint     `json:"bloom_hash_funcs"`
}

type Vision struct {
	Addr           string          `json:"addr"`
	Timeout        Duration        `json:"timeout"`
	MaxNewTokens   int             `json:"max_new_tokens"`
	MaxConcurrency int64           `json:"max_concurrency"`
	Breaker        *Vision_Breaker `json:"breaker"`
	GRPCHealth     *Vision_Health  `json:"grpc_health"`
	Caption        *Vision_Caption `json:"caption"`
}

type Vision_Breaker struct {
	MaxFailures uint32   `json:"max_failures"`
	Timeout     Duration `json:"timeout"`
}

// Vision_Health points at an optional gRPC health endpoint of the model backend.
type Vision_Health struct {
	Addr    string   `json:"addr"`
	Service string   `json:"service"`
	Timeout Duration `json:"timeout"`
}

type Vision_Caption struct {
	Provider string          `json:"provider"` // blip | ollama | vllm
	Ollama   *Vision_ChatLLM `json:"ollama"`
	VLLM     *Vision_ChatLLM `json:"vllm"`
}

type Vision_ChatLLM struct {
	Addr    string   `json:"addr"`
	Model   string   `json:"model"`
	APIKey  string   `json:"api_key"`
	Timeout Duration `json:"timeout"`
}

type Analysis struct {
	FrameBudget      int      `json:"frame_budget"`
	VideoAggregation string   `json:"video_aggregation"` // mean | max
	HazardLabels     []string `json:"hazard_labels"`
	NormalLabels     []string `json:"normal_labels"`
	TempDir          string   `json:"temp_dir"`
	MaxDownloadBytes int64    `json:"max_download_bytes"`
	MaxPixels        int      `json:"max_pixels"`
	DownloadTimeout  Duration `json:"download_timeout"`
	UserAgent        string   `json:"user_agent"`
	FFmpeg           string   `json:"ffmpeg"`
	FFprobe          string   `json:"ffprobe"`
}

// Duration accepts "1m30s" style strings or integer nanoseconds.
type Duration time.Duration

func (d Duration) AsDuration() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		*d = Duration(parsed)
	case nil:
		*d = 0
	default:
		return fmt.Errorf("invalid duration %v", v)
	}
	return nil
}

// Nil-safe accessors for optional sections.

func (x *Bootstrap) GetServer() *Server {
	if x != nil {
		return x.Server
	}
	return nil
}

func (x *Bootstrap) GetData() *Data {
	if x != nil {
		return x.Data
	}
	return nil
}

func (x *Bootstrap) GetVision() *Vision {
	if x != nil {
		return x.Vision
	}
	return nil
}

func (x *Bootstrap) GetAnalysis() *Analysis {
	if x != nil {
		return x.Analysis
	}
	return nil
}

func (x *Server) GetHTTP() *Server_HTTP {
	if x != nil {
		return x.HTTP
	}
	return nil
}

func (x *Server) GetGRPC() *Server_GRPC {
	if x != nil {
		return x.GRPC
	}
	return nil
}

func (x *Server) GetLogLevel() string {
	if x != nil {
		return x.LogLevel
	}
	return ""
}

func (x *Data) GetDatabase() *Data_Database {
	if x != nil {
		return x.Database
	}
	return nil
}

func (x *Data) GetRedis() *Data_Redis {
	if x != nil {
		return x.Redis
	}
	return nil
}

func (x *Data) GetCache() *Data_Cache {
	if x != nil {
		return x.Cache
	}
	return nil
}

func (x *Data_Database) GetSource() string {
	if x != nil {
		return x.Source
	}
	return ""
}

func (x *Data_Redis) GetURL() string {
	if x != nil {
		return x.URL
	}
	return ""
}

func (x *Vision) GetBreaker() *Vision_Breaker {
	if x != nil {
		return x.Breaker
	}
	return nil
}

func (x *Vision) GetGRPCHealth() *Vision_Health {
	if x != nil {
		return x.GRPCHealth
	}
	return nil
}

func (x *Vision) GetCaption() *Vision_Caption {
	if x != nil {
		return x.Caption
	}
	return nil
}

func (x *Vision_Caption) GetProvider() string {
	if x != nil {
		return x.Provider
	}
	return ""
}
