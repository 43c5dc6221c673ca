package anonymizer

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

var errUnexpectedToken = errors.New("unexpected token")

// JSON anonymizes every string value in the document, at any depth.
// Object keys and their order, numbers, booleans and nulls are kept.
func (a *Anonymizer) JSON(data []byte, stats Stats) ([]byte, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var compact bytes.Buffer
	if err := a.copyValue(dec, &compact, stats); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, fmt.Errorf("failed to encode anonymized JSON: %w", err)
	}
	return out.Bytes(), nil
}

// copyValue streams one value from dec to buf in document order.
func (a *Anonymizer) copyValue(dec *json.Decoder, buf *bytes.Buffer, stats Stats) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return a.copyObject(dec, buf, stats)
		case '[':
			return a.copyArray(dec, buf, stats)
		default:
			return fmt.Errorf("%w: %s", errUnexpectedToken, t)
		}
	case string:
		return writeString(buf, a.Text(t, stats))
	case json.Number:
		buf.WriteString(t.String())
	case bool:
		buf.WriteString(strconv.FormatBool(t))
	case nil:
		buf.WriteString("null")
	default:
		return fmt.Errorf("%w: %v", errUnexpectedToken, t)
	}
	return nil
}

func (a *Anonymizer) copyObject(dec *json.Decoder, buf *bytes.Buffer, stats Stats) error {
	buf.WriteByte('{')
	for i := 0; dec.More(); i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("%w: object key %v", errUnexpectedToken, tok)
		}
		if err := writeString(buf, key); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := a.copyValue(dec, buf, stats); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	buf.WriteByte('}')
	return nil
}

func (a *Anonymizer) copyArray(dec *json.Decoder, buf *bytes.Buffer, stats Stats) error {
	buf.WriteByte('[')
	for i := 0; dec.More(); i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := a.copyValue(dec, buf, stats); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	buf.WriteByte(']')
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
