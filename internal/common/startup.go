package common

import (
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// LoadConfig reads the named config file from path into config, with values
// overridable through DROVER_ prefixed environment variables and any flags
// already bound into viper.
func LoadConfig(config interface{}, name string, path string) {
	viper.SetConfigName(name)
	viper.AddConfigPath(path)
	viper.SetEnvPrefix("DROVER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			log.Error(err)
			os.Exit(-1)
		}
	}
	err := viper.Unmarshal(config)
	if err != nil {
		log.Error(err)
		os.Exit(-1)
	}
}

// BindCommandlineArguments merges parsed flags into viper so flag values win
// over config file and environment values.
func BindCommandlineArguments(flags *pflag.FlagSet) {
	err := viper.BindPFlags(flags)
	if err != nil {
		log.Error(err)
		os.Exit(-1)
	}
}

func ConfigureLogging() {
	log.SetFormatter(&log.TextFormatter{ForceColors: true, FullTimestamp: true})
	log.SetOutput(os.Stdout)
}

// ConfigureCommandLineLogging keeps tool output on stdout and diagnostics on
// stderr, without timestamps.
func ConfigureCommandLineLogging() {
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	log.SetOutput(os.Stderr)
}
