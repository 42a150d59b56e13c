// Package version хранит сведения о сборке. Значения подставляются через -ldflags:
//
//	go build -ldflags "-X telegram-forwarder/internal/support/version.Version=v2.1.0"
package version

// Name — имя приложения для логов и паспорта устройства.
const Name = "telegram-forwarder"

// Version — версия сборки; "dev" для локальных запусков.
var Version = "dev"

// String возвращает "name version".
func String() string { return Name + " " + Version }
