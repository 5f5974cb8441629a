package config

import (
	"github.com/sirupsen/logrus"
)

// Logger: uygulama genelinde kullanılan logrus logger'ı
var Logger = logrus.New()

func init() {
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
}

func SetLogLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		Logger.Warnf("LOG_LEVEL geçersiz (%s), 'info' kullanılıyor", level)
		lvl = logrus.InfoLevel
	}
	Logger.SetLevel(lvl)
}

// LogError: hata loglama için ortak format (dosya > fonksiyon > adım)
func LogError(file string, function string, step string, data interface{}, err error) {
	Logger.WithFields(logrus.Fields{
		"file":     file,
		"function": function,
		"step":     step,
		"data":     data,
	}).Error(err)
}
