// C:\Users\wasab\OneDrive\デスクトップ\PYRO\config\config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// DefaultPath は設定ファイルの既定の場所です。
const DefaultPath = "./pyrotrack.yaml"

type Config struct {
	Server   ServerConfig   `mapstructure:"server" json:"server"`
	Database DatabaseConfig `mapstructure:"database" json:"database"`
	Log      LogConfig      `mapstructure:"log" json:"log"`
	DeepSeek DeepSeekConfig `mapstructure:"deepseek" json:"deepseek"`
	App      AppConfig      `mapstructure:"app" json:"app"`
}

type ServerConfig struct {
	Port int `mapstructure:"port" json:"port"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" json:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" json:"level"`
	Format string `mapstructure:"format" json:"format"`
}

type DeepSeekConfig struct {
	APIKey  string        `mapstructure:"api_key" json:"apiKey"`
	BaseURL string        `mapstructure:"base_url" json:"baseUrl"`
	Model   string        `mapstructure:"model" json:"model"`
	Timeout time.Duration `mapstructure:"timeout" json:"timeout"`
}

type AppConfig struct {
	OpenBrowser bool `mapstructure:"open_browser" json:"openBrowser"`
}

var (
	cfg  = Default()
	path = DefaultPath
	mu   sync.RWMutex
)

// Default は設定ファイルが無いときの値です。
func Default() Config {
	return Config{
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{Path: "./pyrotrack.db"},
		Log:      LogConfig{Level: "info", Format: "console"},
		DeepSeek: DeepSeekConfig{
			BaseURL: "https://api.deepseek.com",
			Model:   "deepseek-chat",
			Timeout: 60 * time.Second,
		},
		App: AppConfig{OpenBrowser: true},
	}
}

func newViper(file string) *viper.Viper {
	d := Default()
	v := viper.New()
	v.SetConfigFile(file)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("PYRO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("deepseek.api_key", d.DeepSeek.APIKey)
	v.SetDefault("deepseek.base_url", d.DeepSeek.BaseURL)
	v.SetDefault("deepseek.model", d.DeepSeek.Model)
	v.SetDefault("deepseek.timeout", d.DeepSeek.Timeout)
	v.SetDefault("app.open_browser", d.App.OpenBrowser)
	return v
}

/**
 * LoadConfig は file を読み込み、PYRO_ で始まる環境変数で上書きします。
 * ファイルが無い場合は既定値 (と環境変数) を使います。
 * 例: PYRO_SERVER_PORT=9090, PYRO_DEEPSEEK_API_KEY=sk-...
 */
func LoadConfig(file string) (Config, error) {
	mu.Lock()
	defer mu.Unlock()

	v := newViper(file)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return Default(), fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
		}
	}

	var loaded Config
	if err := v.Unmarshal(&loaded); err != nil {
		return Default(), fmt.Errorf("設定ファイルの解析に失敗: %w", err)
	}
	if loaded.DeepSeek.Timeout <= 0 {
		loaded.DeepSeek.Timeout = Default().DeepSeek.Timeout
	}

	cfg = loaded
	path = file
	return cfg, nil
}

// SaveConfig は設定を最後に読み込んだファイルへ書き出し、現在の設定を置き換えます。
func SaveConfig(newCfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	if newCfg.DeepSeek.Timeout <= 0 {
		newCfg.DeepSeek.Timeout = Default().DeepSeek.Timeout
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("server.port", newCfg.Server.Port)
	v.Set("database.path", newCfg.Database.Path)
	v.Set("log.level", newCfg.Log.Level)
	v.Set("log.format", newCfg.Log.Format)
	v.Set("deepseek.api_key", newCfg.DeepSeek.APIKey)
	v.Set("deepseek.base_url", newCfg.DeepSeek.BaseURL)
	v.Set("deepseek.model", newCfg.DeepSeek.Model)
	v.Set("deepseek.timeout", newCfg.DeepSeek.Timeout.String())
	v.Set("app.open_browser", newCfg.App.OpenBrowser)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("設定ファイルの書き込みに失敗: %w", err)
	}
	cfg = newCfg
	return nil
}

// GetConfig は現在の設定のコピーを返します。
func GetConfig() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// Masked は API キーを末尾4文字以外伏せた設定を返します。画面表示用。
func (c Config) Masked() Config {
	c.DeepSeek.APIKey = MaskKey(c.DeepSeek.APIKey)
	return c
}

func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
