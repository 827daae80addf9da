package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// IsFalsyJSON сообщает, что значение отсутствует или ложно в смысле JS:
// null, false, 0, "" или пустой ввод. Такие данные не сохраняются.
func IsFalsyJSON(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	switch {
	case len(t) == 0:
		return true
	case bytes.Equal(t, []byte("null")), bytes.Equal(t, []byte("false")), bytes.Equal(t, []byte(`""`)):
		return true
	case t[0] == '-' || (t[0] >= '0' && t[0] <= '9'):
		f, err := strconv.ParseFloat(string(t), 64)
		return err == nil && f == 0
	}
	return false
}

// canonicalJSON перекодирует JSON так же, как JSON.stringify: порядок ключей
// сохраняется, числа приводятся к кратчайшей записи, \uXXXX раскрываются.
func canonicalJSON(raw []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	var buf bytes.Buffer
	if err := writeCanonical(dec, &buf); err != nil {
		return "", err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return "", errors.New("unexpected data after JSON value")
	}
	return buf.String(), nil
}

func writeCanonical(dec *json.Decoder, buf *bytes.Buffer) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			buf.WriteByte('{')
			for i := 0; dec.More(); i++ {
				if i > 0 {
					buf.WriteByte(',')
				}
				kt, err := dec.Token()
				if err != nil {
					return err
				}
				key, ok := kt.(string)
				if !ok {
					return fmt.Errorf("unexpected object key %v", kt)
				}
				if err := writeString(buf, key); err != nil {
					return err
				}
				buf.WriteByte(':')
				if err := writeCanonical(dec, buf); err != nil {
					return err
				}
			}
			buf.WriteByte('}')
		case '[':
			buf.WriteByte('[')
			for i := 0; dec.More(); i++ {
				if i > 0 {
					buf.WriteByte(',')
				}
				if err := writeCanonical(dec, buf); err != nil {
					return err
				}
			}
			buf.WriteByte(']')
		default:
			return fmt.Errorf("unexpected delimiter %v", v)
		}
		// закрывающий разделитель
		_, err := dec.Token()
		return err
	case string:
		return writeString(buf, v)
	case float64:
		if v == 0 {
			v = 0 // -0 → 0
		}
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(b)
	case bool:
		buf.WriteString(strconv.FormatBool(v))
	case nil:
		buf.WriteString("null")
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}
