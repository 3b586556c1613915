package record

import (
	"go.sablewire.io/engine/pkg/brigade"
	"go.sablewire.io/engine/pkg/models"
)

// Write frames payload as one or more records of at most
// models.MaxRecordPayload bytes each and appends them to out. An empty
// payload produces a single zero-length record.
func Write(out *brigade.Brigade, ct models.ContentType, v models.Version, payload []byte) {
	for {
		chunk := payload
		if len(chunk) > models.MaxRecordPayload {
			chunk = chunk[:models.MaxRecordPayload]
		}
		hdr := []byte{
			byte(ct),
			v.Major,
			v.Minor,
			byte(len(chunk) >> 8),
			byte(len(chunk)),
		}
		out.Append(hdr)
		out.Append(chunk)
		payload = payload[len(chunk):]
		if len(payload) == 0 {
			return
		}
	}
}

// WriteAlert frames a single two-byte alert record.
func WriteAlert(out *brigade.Brigade, v models.Version, level, desc byte) {
	Write(out, models.ContentAlert, v, []byte{level, desc})
}
