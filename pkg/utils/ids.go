package utils

import (
	"errors"
	"sync"
	"time"

	"github.com/sony/sonyflake"
)

// fallbackMachineID is used when the host has no private IPv4 address.
const fallbackMachineID = 100

var (
	idOnce sync.Once
	idGen  *sonyflake.Sonyflake
)

func idGenerator() *sonyflake.Sonyflake {
	idOnce.Do(func() {
		idGen = sonyflake.NewSonyflake(sonyflake.Settings{
			StartTime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		})
		if idGen == nil {
			idGen = sonyflake.NewSonyflake(sonyflake.Settings{
				StartTime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
				MachineID: func() (uint16, error) { return fallbackMachineID, nil },
			})
		}
	})
	return idGen
}

// NextID returns a new row id for the permits table.
func NextID() (uint64, error) {
	gen := idGenerator()
	if gen == nil {
		return 0, errors.New("id generator unavailable")
	}
	return gen.NextID()
}
