package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lucas-albers-lz4/helm-snyk/internal/helm"
	"github.com/lucas-albers-lz4/helm-snyk/pkg/scan"
)

// Configuration keys. Each can be set in the config file or through a
// HELM_SNYK_ prefixed environment variable with dashes replaced by
// underscores.
const (
	keyToken          = "token"
	keyHelmBinary     = "helm-binary"
	keyScannerImage   = "scanner-image"
	keyScannerCommand = "scanner-command"
	keyRenderer       = "renderer"
	keyLogLevel       = "log-level"
	keyLogFormat      = "log-format"

	flagLogLevel  = keyLogLevel
	flagLogFormat = keyLogFormat
	flagRenderer  = keyRenderer

	envPrefix     = "HELM_SNYK"
	configName    = ".helm-snyk"
	configType    = "yaml"
	helmBinEnvVar = "HELM_BIN"
	rendererCLI   = "cli"
	rendererSDK   = "sdk"
)

var (
	errUnknownRenderer = errors.New("unknown renderer")
	errReadConfig      = errors.New("failed to read config file")
)

// settings is the resolved configuration of one invocation.
type settings struct {
	Token          string
	HelmBinary     string
	ScannerImage   string
	ScannerCommand string
	Renderer       string
	LogLevel       string
	LogFormat      string
}

// loadSettings layers flags over environment over the config file over
// defaults. The config file is cfgFile when set, otherwise
// $HOME/.helm-snyk.yaml if it exists.
func loadSettings(fs afero.Fs, flags *pflag.FlagSet, cfgFile string) (*settings, error) {
	v := viper.New()
	v.SetFs(fs)

	v.SetDefault(keyHelmBinary, helm.DefaultBinary)
	v.SetDefault(keyScannerImage, scan.DefaultScannerImage)
	v.SetDefault(keyScannerCommand, "")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv(keyToken, envPrefix+"_TOKEN", scan.TokenEnvVar); err != nil {
		return nil, fmt.Errorf("failed to bind %s: %w", keyToken, err)
	}
	// Helm sets HELM_BIN when running us as a plugin.
	if err := v.BindEnv(keyHelmBinary, envPrefix+"_HELM_BINARY", helmBinEnvVar); err != nil {
		return nil, fmt.Errorf("failed to bind %s: %w", keyHelmBinary, err)
	}

	for _, name := range []string{flagLogLevel, flagLogFormat, flagRenderer} {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(name, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	if err := readConfig(v, cfgFile); err != nil {
		return nil, err
	}

	return &settings{
		Token:          v.GetString(keyToken),
		HelmBinary:     v.GetString(keyHelmBinary),
		ScannerImage:   v.GetString(keyScannerImage),
		ScannerCommand: v.GetString(keyScannerCommand),
		Renderer:       strings.ToLower(v.GetString(keyRenderer)),
		LogLevel:       v.GetString(keyLogLevel),
		LogFormat:      v.GetString(keyLogFormat),
	}, nil
}

func readConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("%w %s: %w", errReadConfig, cfgFile, err)
		}
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	v.AddConfigPath(home)
	v.SetConfigName(configName)
	v.SetConfigType(configType)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("%w: %w", errReadConfig, err)
	}
	return nil
}
