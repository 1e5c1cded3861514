package server

import (
	"bytes"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/mohit83k/radius-bridge/internal/model"
)

// fieldAliases maps each request field to the names it may arrive under,
// normalized by normalizeKey. RADIUS dictionary names come first, then the
// REST spellings.
var fieldAliases = map[string][]string{
	"user_name":          {"user_name", "username"},
	"password":           {"user_password", "password"},
	"service_type":       {"service_type"},
	"nas_port_type":      {"nas_port_type"},
	"acct_status_type":   {"acct_status_type", "status"},
	"acct_session_id":    {"acct_session_id", "session_id"},
	"session_time":       {"acct_session_time", "session_time"},
	"input_octets":       {"acct_input_octets", "input_octets"},
	"input_gigawords":    {"acct_input_gigawords", "input_gigawords"},
	"output_octets":      {"acct_output_octets", "output_octets"},
	"output_gigawords":   {"acct_output_gigawords", "output_gigawords"},
	"framed_ip_address":  {"framed_ip_address", "framed_ip"},
	"nas_ip_address":     {"nas_ip_address", "nas_ip"},
	"nas_port":           {"nas_port"},
	"called_station_id":  {"called_station_id"},
	"calling_station_id": {"calling_station_id"},
	"terminate_cause":    {"acct_terminate_cause", "terminate_cause"},
	"rate_limit":         {"mikrotik_rate_limit", "rate_limit"},
}

// normalizeKey folds "User-Name", "user_name" and "USER-NAME" together.
func normalizeKey(k string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(k)), "-", "_")
}

// fields is a decoded body keyed by normalized attribute name.
type fields map[string]string

func (f fields) str(field string) string {
	for _, alias := range fieldAliases[field] {
		if v, ok := f[alias]; ok && v != "" {
			return v
		}
	}
	return ""
}

// num parses a numeric field. Missing or malformed values are zero.
func (f fields) num(field string) int64 {
	s := f.str(field)
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if fl, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(fl)
	}
	return 0
}

// decodeRequest reads a JSON or form-encoded body into a RadiusRequest. On a
// malformed body it returns the zero request along with the error.
func decodeRequest(c *gin.Context) (model.RadiusRequest, error) {
	body, err := c.GetRawData()
	if err != nil {
		return model.RadiusRequest{}, fmt.Errorf("failed to read body: %w", err)
	}

	f, err := parseBody(c.ContentType(), body)
	if err != nil {
		return model.RadiusRequest{}, err
	}

	return model.RadiusRequest{
		UserName:         f.str("user_name"),
		Password:         f.str("password"),
		ServiceType:      f.str("service_type"),
		NASPortType:      f.str("nas_port_type"),
		AcctStatusType:   f.str("acct_status_type"),
		AcctSessionID:    f.str("acct_session_id"),
		SessionTime:      f.num("session_time"),
		InputOctets:      f.num("input_octets"),
		InputGigawords:   f.num("input_gigawords"),
		OutputOctets:     f.num("output_octets"),
		OutputGigawords:  f.num("output_gigawords"),
		FramedIPAddress:  f.str("framed_ip_address"),
		NASIPAddress:     f.str("nas_ip_address"),
		NASPort:          int(f.num("nas_port")),
		CalledStationID:  f.str("called_station_id"),
		CallingStationID: f.str("calling_station_id"),
		TerminateCause:   f.str("terminate_cause"),
		RateLimit:        f.str("rate_limit"),
	}, nil
}

func parseBody(contentType string, body []byte) (fields, error) {
	f := fields{}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return f, nil
	}

	if contentType == binding.MIMEJSON || (contentType != binding.MIMEPOSTForm && trimmed[0] == '{') {
		var raw map[string]any
		if err := binding.JSON.BindBody(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("failed to decode JSON body: %w", err)
		}
		for k, v := range raw {
			f[normalizeKey(k)] = scalar(v)
		}
		return f, nil
	}

	values, err := url.ParseQuery(string(trimmed))
	if err != nil {
		return nil, fmt.Errorf("failed to decode form body: %w", err)
	}
	for k, v := range values {
		if len(v) > 0 {
			f[normalizeKey(k)] = strings.TrimSpace(v[0])
		}
	}
	return f, nil
}

// scalar flattens a JSON value. rlm_rest posts attributes as
// {"type": "...", "value": [...]}; the first value is used.
func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		if len(t) == 0 {
			return ""
		}
		return scalar(t[0])
	case map[string]any:
		for k, inner := range t {
			if strings.EqualFold(k, "value") {
				return scalar(inner)
			}
		}
		return ""
	default:
		return fmt.Sprint(t)
	}
}
