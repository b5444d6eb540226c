package idgen

import (
	"hash/fnv"
	"os"

	"github.com/fundwit/go-commons/types"
	"github.com/sony/sonyflake"
)

// NewWorker builds a sonyflake worker, falling back to a hostname derived machine id
// when no private IP address is available (e.g. inside minimal containers).
func NewWorker() *sonyflake.Sonyflake {
	if w := sonyflake.NewSonyflake(sonyflake.Settings{}); w != nil {
		return w
	}
	return sonyflake.NewSonyflake(sonyflake.Settings{MachineID: hostMachineID})
}

func NextID(idWorker *sonyflake.Sonyflake) types.ID {
	id, err := idWorker.NextID()
	if err != nil {
		panic(err)
	}
	return types.ID(id)
}

func hostMachineID() (uint16, error) {
	name, err := os.Hostname()
	if err != nil {
		name = "localhost"
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return uint16(h.Sum32()), nil
}
