package upnp

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"github.com/huin/goupnp"
)

var errInvalidIndex = errors.New("SpecifiedArrayIndexInvalid")

type fakeRow struct {
	remoteHost     string
	externalPort   uint16
	protocol       string
	internalPort   uint16
	internalClient string
	description    string
	lease          uint32
}

type fakeAddCall struct {
	remoteHost   string
	externalPort uint16
	protocol     string
	internalPort uint16
	client       string
	enabled      bool
	description  string
	lease        uint32
}

type fakeDeleteCall struct {
	remoteHost   string
	externalPort uint16
	protocol     string
}

// fakeIGD 内存 IGD 连接服务
type fakeIGD struct {
	mu sync.Mutex
	sc goupnp.ServiceClient

	rows    []fakeRow
	ip      string
	uptime  uint32
	err     error
	adds    []fakeAddCall
	deletes []fakeDeleteCall
}

func newFakeIGD(location string) *fakeIGD {
	loc, _ := url.Parse(location)
	root := &goupnp.RootDevice{}
	root.Device.FriendlyName = "Fake Router"
	root.Device.Manufacturer = "Acme"
	root.Device.ModelDescription = "Acme IGD"
	root.Device.DeviceType = "urn:schemas-upnp-org:device:InternetGatewayDevice:1"
	root.Device.PresentationURL.Str = "/admin"
	root.Device.PresentationURL.SetURLBase(loc)

	return &fakeIGD{
		sc: goupnp.ServiceClient{RootDevice: root, Location: loc},
		ip: "203.0.113.9",
	}
}

func (f *fakeIGD) GetExternalIPAddressCtx(_ context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.ip, nil
}

func (f *fakeIGD) AddPortMappingCtx(
	_ context.Context, remoteHost string, externalPort uint16, protocol string,
	internalPort uint16, internalClient string, enabled bool, description string, lease uint32,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.adds = append(f.adds, fakeAddCall{remoteHost, externalPort, protocol, internalPort, internalClient, enabled, description, lease})
	return nil
}

func (f *fakeIGD) DeletePortMappingCtx(_ context.Context, remoteHost string, externalPort uint16, protocol string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.deletes = append(f.deletes, fakeDeleteCall{remoteHost, externalPort, protocol})
	return nil
}

func (f *fakeIGD) GetGenericPortMappingEntryCtx(_ context.Context, index uint16) (
	string, uint16, string, uint16, string, bool, string, uint32, error,
) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if int(index) >= len(f.rows) {
		return "", 0, "", 0, "", false, "", 0, errInvalidIndex
	}
	r := f.rows[index]
	return r.remoteHost, r.externalPort, r.protocol, r.internalPort, r.internalClient, true, r.description, r.lease, nil
}

func (f *fakeIGD) GetStatusInfoCtx(_ context.Context) (string, string, uint32, error) {
	if f.err != nil {
		return "", "", 0, f.err
	}
	return "Connected", "ERROR_NONE", f.uptime, nil
}

func (f *fakeIGD) GetServiceClient() *goupnp.ServiceClient {
	return &f.sc
}
