//go:build windows

package apartment

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// IsSingleThreaded calls CoGetApartmentType and reports whether the
// current thread is running in a single-threaded apartment.
func (Probe) IsSingleThreaded() bool {
	apartmentType, _, err := coGetApartmentType()
	if err != nil {
		// Thread never initialised COM: treat as STA, the conservative
		// choice that still rejects the wrapper backend (spec §4.6 step 3).
		return true
	}
	const (
		apartmentTypeSTA  = 0
		apartmentTypeMain = 3 // main-STA, still single-threaded
	)
	return apartmentType == apartmentTypeSTA || apartmentType == apartmentTypeMain
}

var (
	modole32             = windows.NewLazySystemDLL("ole32.dll")
	procCoGetApartmentType = modole32.NewProc("CoGetApartmentType")
)

func coGetApartmentType() (apartmentType, apartmentQualifier int32, err error) {
	r0, _, callErr := procCoGetApartmentType.Call(
		uintptr(unsafe.Pointer(&apartmentType)),
		uintptr(unsafe.Pointer(&apartmentQualifier)),
	)
	if r0 != 0 {
		return 0, 0, callErr
	}
	return apartmentType, apartmentQualifier, nil
}
