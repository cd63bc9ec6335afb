package idempotency

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"time"

	"github.com/jhoicas/inventory-service/internal/domain/entity"
)

// GenerateEventID deriva la clave de idempotencia de un evento.
// Si el productor envió eventId se usa tal cual; si no, se calcula SHA-256 sobre los campos
// estables del sobre y el payload en JSON canónico (claves ordenadas), de modo que la
// reentrega del mismo evento lógico produce siempre el mismo ID, incluso tras reinicios.
func GenerateEventID(event entity.Event) string {
	if event.ID != "" {
		return event.ID
	}

	h := sha256.New()
	writeField(h, event.Type)
	writeField(h, event.AggregateID)
	writeField(h, event.Source)
	if !event.OccurredAt.IsZero() {
		writeField(h, event.OccurredAt.UTC().Format(time.RFC3339Nano))
	} else {
		writeField(h, "")
	}
	h.Write(canonicalJSON(event.Payload))

	return event.Type + ":" + hex.EncodeToString(h.Sum(nil))
}

// writeField separa los campos con un byte nulo para que ("ab","c") y ("a","bc") no colisionen.
func writeField(h io.Writer, s string) {
	_, _ = h.Write([]byte(s))
	_, _ = h.Write([]byte{0})
}

// canonicalJSON re-serializa el payload: encoding/json ordena las claves de los mapas,
// así que dos payloads equivalentes con distinto orden o espaciado producen los mismos bytes.
// Un payload que no es JSON válido se usa compactado tal cual.
func canonicalJSON(raw json.RawMessage) []byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return trimmed
	}
	out, err := json.Marshal(v)
	if err != nil {
		return trimmed
	}
	return out
}
