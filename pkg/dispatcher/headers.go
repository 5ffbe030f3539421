package dispatcher

// Standard headers attached to every outgoing request.
const (
	HeaderAPIVersion    = "X-Api-Version"
	HeaderSDKVersion    = "X-SDK-Version"
	HeaderDevice        = "X-Device"
	HeaderDeviceVersion = "X-Device-Version"
	HeaderContentType   = "Content-Type"
)

// HeaderProvider supplies headers computed at request time. They are applied after
// the caller's headers.
type HeaderProvider interface {
	Headers() map[string]string
}

// HeaderFunc adapts a function to HeaderProvider.
type HeaderFunc func() map[string]string

// Headers calls f.
func (f HeaderFunc) Headers() map[string]string { return f() }

// ClientInfo describes the API and SDK versions and the device the client runs on.
type ClientInfo struct {
	APIVersion    string
	SDKVersion    string
	Device        string
	DeviceVersion string
}

// Headers returns the X-Api-Version, X-SDK-Version, X-Device and X-Device-Version
// headers. All four keys are always present; unknown values are sent empty.
func (c ClientInfo) Headers() map[string]string {
	return map[string]string{
		HeaderAPIVersion:    c.APIVersion,
		HeaderSDKVersion:    c.SDKVersion,
		HeaderDevice:        c.Device,
		HeaderDeviceVersion: c.DeviceVersion,
	}
}
