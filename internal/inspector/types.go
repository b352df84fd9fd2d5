package inspector

import (
	"time"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Metrics interface {
		ObserveDecode(envelope string, size int, err error, started time.Time)
		ObserveBatch(count int, err error)
	}
	ScriptDecoder interface {
		DecodeAddresses(script []byte) ([]string, error)
	}
)
