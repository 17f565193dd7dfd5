package utils

import (
	"encoding/json"
	log "github.com/sirupsen/logrus"
	"strconv"
)

func IntFromString(s string, defaultValue int) int {
	atoi, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return atoi
}

func ToJson(value any) []byte {
	jsonResp, err := json.Marshal(value)
	if err != nil {
		log.Errorf("Error happened in JSON marshal. Err: %s", err)
	}
	return jsonResp
}

// Recoverer restarts f after a panic, up to maxPanics times.
func Recoverer(maxPanics int, name string, f func()) {
	defer func() {
		if err := recover(); err != nil {
			log.Errorf("Panic in %s: %v", name, err)
			if maxPanics == 0 {
				panic("too many panics in " + name)
			} else {
				go Recoverer(maxPanics-1, name, f)
			}
		}
	}()
	f()
}
