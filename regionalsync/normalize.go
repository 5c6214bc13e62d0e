package regionalsync

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

const maxRegionalNameLength = 200

// ExternalRecord is one usable feed entry after normalization.
// ExternalCode is nil when the source row carried no id.
type ExternalRecord struct {
	ExternalCode *int
	Name         string
}

// DroppedRecord keeps the raw payload of a feed entry that could not
// be used, so the run bookkeeping can surface it to operators.
type DroppedRecord struct {
	Reason     string
	RawPayload []byte
}

const (
	dropMissingName  = "missing_name"
	dropBlankName    = "blank_name"
	dropNameTooLong  = "name_too_long"
	warnUnusableCode = "unusable_external_code"
)

// normalizeRecords turns the raw feed objects into ExternalRecords.
// Entries without a usable name are dropped, never fatal: one bad row
// must not block the rest of the pass. An id that cannot be coerced to
// an integer leaves the record code-less; that degradation is reported
// in warnings but the record still flows through.
func normalizeRecords(raw []map[string]interface{}) ([]ExternalRecord, []DroppedRecord, []DroppedRecord) {
	records := make([]ExternalRecord, 0, len(raw))
	var dropped, warnings []DroppedRecord

	for _, entry := range raw {
		nameValue, ok := entry["nome"]
		if !ok || nameValue == nil {
			dropped = append(dropped, dropRecord(dropMissingName, entry))
			continue
		}
		nameStr, ok := nameValue.(string)
		if !ok {
			dropped = append(dropped, dropRecord(dropMissingName, entry))
			continue
		}
		name := strings.TrimSpace(nameStr)
		if name == "" {
			dropped = append(dropped, dropRecord(dropBlankName, entry))
			continue
		}
		if len(name) > maxRegionalNameLength {
			dropped = append(dropped, dropRecord(dropNameTooLong, entry))
			continue
		}

		code := coerceExternalCode(entry["id"])
		if code == nil {
			if idValue, present := entry["id"]; present && idValue != nil {
				warnings = append(warnings, dropRecord(warnUnusableCode, entry))
			}
		}
		records = append(records, ExternalRecord{
			ExternalCode: code,
			Name:         name,
		})
	}
	return records, dropped, warnings
}

func dropRecord(reason string, entry map[string]interface{}) DroppedRecord {
	payload, err := json.Marshal(entry)
	if err != nil {
		payload = []byte("{}")
	}
	return DroppedRecord{Reason: reason, RawPayload: payload}
}

// coerceExternalCode accepts the integer shapes the feed has been seen
// to emit. Anything else is treated as absent.
func coerceExternalCode(value interface{}) *int {
	switch v := value.(type) {
	case float64:
		if v != math.Trunc(v) {
			return nil
		}
		code := int(v)
		return &code
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return nil
		}
		code := int(n)
		return &code
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil
		}
		return &n
	default:
		return nil
	}
}
