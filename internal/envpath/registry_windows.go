package envpath

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"

	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/errs"
)

const (
	machineKey = `SYSTEM\CurrentControlSet\Control\Session Manager\Environment`
	userKey    = `Environment`

	hwndBroadcast   = 0xFFFF
	wmSettingChange = 0x001A
	smtoAbortIfHung = 0x0002
	broadcastWaitMS = 2000
)

var sendMessageTimeout = windows.NewLazySystemDLL("user32.dll").NewProc("SendMessageTimeoutW")

// RegistryStore keeps PATH in the Windows registry.
type RegistryStore struct{}

// NewSystemStore returns the store backing the real environment.
func NewSystemStore() Store { return RegistryStore{} }

func (RegistryStore) Read(scope Scope) (string, error) {
	k, err := openKey(scope, registry.QUERY_VALUE)
	if err != nil {
		return "", err
	}
	defer k.Close()
	v, _, err := k.GetStringValue("Path")
	if errors.Is(err, registry.ErrNotExist) {
		return "", nil
	}
	return v, err
}

func (RegistryStore) Write(scope Scope, value string) error {
	k, err := openKey(scope, registry.SET_VALUE)
	if err != nil {
		return err
	}
	defer k.Close()
	if err := k.SetExpandStringValue("Path", value); err != nil {
		return denied(err, scope)
	}
	return nil
}

func (RegistryStore) Broadcast() error {
	env, err := windows.UTF16PtrFromString("Environment")
	if err != nil {
		return err
	}
	var result uintptr
	r, _, callErr := sendMessageTimeout.Call(
		hwndBroadcast,
		wmSettingChange,
		0,
		uintptr(unsafe.Pointer(env)),
		smtoAbortIfHung,
		broadcastWaitMS,
		uintptr(unsafe.Pointer(&result)),
	)
	if r == 0 {
		return errors.Wrap(callErr, "SendMessageTimeoutW")
	}
	return nil
}

// IsElevated reports whether the process token is elevated.
func IsElevated() bool {
	return windows.GetCurrentProcessToken().IsElevated()
}

func openKey(scope Scope, access uint32) (registry.Key, error) {
	root, path := registry.CURRENT_USER, userKey
	if scope == ScopeMachine {
		root, path = registry.LOCAL_MACHINE, machineKey
	}
	k, err := registry.OpenKey(root, path, access)
	if err != nil {
		return 0, denied(err, scope)
	}
	return k, nil
}

func denied(err error, scope Scope) error {
	if errors.Is(err, windows.ERROR_ACCESS_DENIED) {
		return errs.PermissionDenied(err, scope.String()+" environment key")
	}
	return err
}
