package gateway

import (
	"errors"
)

// 操作名，用于 Fault.Op
const (
	OpAdd                 = "add"
	OpRemove              = "remove"
	OpGetExternalIP       = "getExternalIP"
	OpGetInternalHostName = "getInternalHostName"
	OpGetInternalPort     = "getInternalPort"
	OpParseLocation       = "parseLocation"
	OpGetName             = "getName"
	OpList                = "list"
	OpGetUpTime           = "getUpTime"
	OpRouterInfo          = "routerInfo"
)

// Sentinel errors
var (
	// ErrDisconnected 客户端已断开
	ErrDisconnected = errors.New("disconnected")

	// ErrUnsupported 设备不支持该操作
	ErrUnsupported = errors.New("not supported by device")

	// ErrMalformedURL 管理页面地址格式错误
	ErrMalformedURL = errors.New("malformed presentation URL")

	// ErrInvalidMapping 端口映射参数无效
	ErrInvalidMapping = errors.New("invalid port mapping")

	// ErrNilDevice 未提供设备句柄
	ErrNilDevice = errors.New("gateway: nil device")
)

var opMessages = map[string]string{
	OpAdd:                 "could not add port mapping",
	OpRemove:              "could not delete port mapping",
	OpGetExternalIP:       "could not get external IP address",
	OpGetInternalHostName: "could not get internal host name",
	OpGetInternalPort:     "could not get internal port",
	OpParseLocation:       "could not parse presentation URL",
	OpGetName:             "could not get name",
	OpList:                "could not list port mappings",
	OpGetUpTime:           "could not get uptime",
	OpRouterInfo:          "could not get router info",
}

// Fault 网关操作故障
//
// Cause 原样透传设备错误，不做解释。
type Fault struct {
	Op    string
	Cause error
}

func newFault(op string, cause error) *Fault {
	return &Fault{Op: op, Cause: cause}
}

func (f *Fault) Error() string {
	msg, ok := opMessages[f.Op]
	if !ok {
		msg = f.Op + " failed"
	}
	if f.Cause != nil {
		return "gateway: " + msg + ": " + f.Cause.Error()
	}
	return "gateway: " + msg
}

// Unwrap 解包错误
func (f *Fault) Unwrap() error {
	return f.Cause
}

// IsFault 判断 err 是否为指定操作的 Fault
//
// op 为空时匹配任意操作。
func IsFault(err error, op string) bool {
	var f *Fault
	if !errors.As(err, &f) {
		return false
	}
	return op == "" || f.Op == op
}

// IsDisconnected 判断 err 是否由客户端已断开导致
func IsDisconnected(err error) bool {
	return errors.Is(err, ErrDisconnected)
}
