// +build !bmesdk

package bme

import "errors"

// ErrNoSDK is generated by NewSDK in builds without the vendor SDK
var ErrNoSDK = errors.New("bme: built without the vendor SDK, rebuild with -tags bmesdk")

// NewSDK returns ErrNoSDK; the vendor library is only linked with -tags bmesdk
func NewSDK() (Library, error) {
	return nil, ErrNoSDK
}
