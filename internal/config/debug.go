package config

import "os"

func IsDebug() bool {
	return os.Getenv("POLYCHAT_DEBUG") == "1"
}
