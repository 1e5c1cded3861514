package model

import (
	"encoding/json"
	"strings"
)

// ServiceType is the access technology a package is sold for.
type ServiceType string

const (
	ServiceTypePPPoE   ServiceType = "PPPOE"
	ServiceTypeHotspot ServiceType = "HOTSPOT"
	ServiceTypeStatic  ServiceType = "STATIC"
	ServiceTypeDHCP    ServiceType = "DHCP"
)

// ParseServiceType normalizes a stored service type. Anything unrecognized,
// including an empty value, is treated as PPPoE.
func ParseServiceType(s string) ServiceType {
	switch st := ServiceType(strings.ToUpper(strings.TrimSpace(s))); st {
	case ServiceTypePPPoE, ServiceTypeHotspot, ServiceTypeStatic, ServiceTypeDHCP:
		return st
	default:
		return ServiceTypePPPoE
	}
}

// Package is a bandwidth profile. Speeds are in Mbps, timeouts in seconds.
// Zero values mean "not configured".
type Package struct {
	ID                string      `json:"id"`
	Name              string      `json:"name,omitempty"`
	DownloadSpeed     float64     `json:"downloadSpeed"`
	UploadSpeed       float64     `json:"uploadSpeed"`
	BurstDownload     float64     `json:"burstDownload,omitempty"`
	BurstUpload       float64     `json:"burstUpload,omitempty"`
	BurstTime         int         `json:"burstTime,omitempty"`
	ThresholdDownload float64     `json:"thresholdDownload,omitempty"`
	ThresholdUpload   float64     `json:"thresholdUpload,omitempty"`
	ServiceType       ServiceType `json:"serviceType"`
	AddressPool       string      `json:"addressPool,omitempty"`
	SessionTimeout    int         `json:"sessionTimeout,omitempty"`
	IdleTimeout       int         `json:"idleTimeout,omitempty"`
	Priority          int         `json:"priority,omitempty"`
	VlanID            int         `json:"vlanId,omitempty"`
}

// UnmarshalJSON decodes a package and normalizes its service type once, so
// callers never compare raw strings.
func (p *Package) UnmarshalJSON(data []byte) error {
	type alias Package
	raw := struct {
		*alias
		ServiceType string `json:"serviceType"`
	}{alias: (*alias)(p)}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.ServiceType = ParseServiceType(raw.ServiceType)
	return nil
}

// HasBurst reports whether any burst or threshold setting is configured.
func (p *Package) HasBurst() bool {
	return p.BurstDownload > 0 || p.BurstUpload > 0 ||
		p.ThresholdDownload > 0 || p.ThresholdUpload > 0 ||
		p.BurstTime > 0
}
