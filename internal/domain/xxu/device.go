package xxu

import (
	"fmt"
	"slices"
	"strings"
)

// DeviceCode is the target-hardware byte stored at OffsetDevice.
type DeviceCode uint8

const (
	// DeviceTI89 is the code for TI-89 / TI-89 Titanium packages (.89u).
	DeviceTI89 DeviceCode = 0x98
	// DeviceTI92Plus is the code shared by TI-92 Plus (.9xu) and Voyage 200 (.v2u).
	DeviceTI92Plus DeviceCode = 0x88
)

// deviceCodes is the closed token table. Lookups are exact and case-sensitive.
//
//nolint:gochecknoglobals // Read-only lookup table.
var deviceCodes = map[string]DeviceCode{
	"89u": DeviceTI89,
	"9xu": DeviceTI92Plus,
	"v2u": DeviceTI92Plus,
}

// String returns the code in hexadecimal form.
func (c DeviceCode) String() string {
	return fmt.Sprintf("0x%02X", uint8(c))
}

// Tokens returns the sorted device tokens mapping to c.
func (c DeviceCode) Tokens() []string {
	tokens := make([]string, 0, len(deviceCodes))

	for token, code := range deviceCodes {
		if code == c {
			tokens = append(tokens, token)
		}
	}

	slices.Sort(tokens)

	return tokens
}

// DeviceTokens returns every accepted device token in sorted order.
func DeviceTokens() []string {
	tokens := make([]string, 0, len(deviceCodes))
	for token := range deviceCodes {
		tokens = append(tokens, token)
	}

	slices.Sort(tokens)

	return tokens
}

// LookupDevice maps a device token to its code.
func LookupDevice(token string) (DeviceCode, error) {
	code, ok := deviceCodes[token]
	if !ok {
		return 0, NewError(ErrUnknownDeviceType, token, nil)
	}

	return code, nil
}

// ResolveDevice returns the code for override when explicit is set, otherwise
// the code named by the extension of filename (the text after its last dot).
// An explicit override is looked up as is, so an empty one is rejected.
func ResolveDevice(override string, explicit bool, filename string) (DeviceCode, error) {
	if explicit {
		return LookupDevice(override)
	}

	dot := strings.LastIndexByte(filename, '.')
	if dot < 0 {
		return 0, NewError(ErrMissingExtension, filename, nil)
	}

	return LookupDevice(filename[dot+1:])
}
