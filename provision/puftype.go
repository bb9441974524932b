package provision

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/moffa90/go-sdmflash/protocol"
)

// PufType selects which PUF a wrapped key or helper data belongs to.
type PufType uint8

// PUF types, numbered as the SDM numbers them.
const (
	UDSIID   PufType = 0
	UDSIntel PufType = 1
	UDSEfuse PufType = 2
	UserIID  PufType = 3
)

var pufTypeNames = map[PufType]string{
	UDSIID:   "UDS_IID",
	UDSIntel: "UDS_INTEL",
	UDSEfuse: "UDS_EFUSE",
	UserIID:  "USER_IID",
}

func (t PufType) String() string {
	if name, ok := pufTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("PUF_TYPE_%d", uint8(t))
}

// ParsePufType accepts a type name such as "USER_IID" (case-insensitive,
// dashes allowed) or its number.
func ParsePufType(s string) (PufType, error) {
	name := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	for t, n := range pufTypeNames {
		if n == name {
			return t, nil
		}
	}
	if n, err := strconv.ParseUint(name, 10, 8); err == nil {
		if _, ok := pufTypeNames[PufType(n)]; ok {
			return PufType(n), nil
		}
	}
	return 0, &protocol.PreconditionError{
		Operation: "parse PUF type",
		Reason:    fmt.Sprintf("unknown PUF type %q", s),
	}
}
