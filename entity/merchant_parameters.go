package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Redsys request field names.
const (
	MerchantAmount          = "DS_MERCHANT_AMOUNT"
	MerchantOrder           = "DS_MERCHANT_ORDER"
	MerchantCode            = "DS_MERCHANT_MERCHANTCODE"
	MerchantCurrency        = "DS_MERCHANT_CURRENCY"
	MerchantTransactionType = "DS_MERCHANT_TRANSACTIONTYPE"
	MerchantTerminal        = "DS_MERCHANT_TERMINAL"
	MerchantURL             = "DS_MERCHANT_MERCHANTURL"
	MerchantUrlOK           = "DS_MERCHANT_URLOK"
	MerchantUrlKO           = "DS_MERCHANT_URLKO"
	MerchantProduct         = "DS_MERCHANT_PRODUCTDESCRIPTION"
	MerchantTitular         = "DS_MERCHANT_TITULAR"
	MerchantLanguage        = "DS_MERCHANT_CONSUMERLANGUAGE"
	MerchantData            = "DS_MERCHANT_MERCHANTDATA"
)

// MerchantParameters is the ordered set of fields exchanged with Redsys.
// The order of Set calls is the order of the JSON object, so the Base64
// payload built from it is reproducible byte for byte.
type MerchantParameters struct {
	keys   []string
	values map[string]string
}

func NewMerchantParameters() *MerchantParameters {
	return &MerchantParameters{values: make(map[string]string)}
}

// Set adds or replaces a field. A replaced field keeps its original position.
func (m *MerchantParameters) Set(name, value string) *MerchantParameters {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	if _, ok := m.values[name]; !ok {
		m.keys = append(m.keys, name)
	}
	m.values[name] = value
	return m
}

// SetOptional sets the field only when the value is not empty.
func (m *MerchantParameters) SetOptional(name, value string) *MerchantParameters {
	if value == "" {
		return m
	}
	return m.Set(name, value)
}

func (m *MerchantParameters) Get(name string) (string, bool) {
	value, ok := m.values[name]
	return value, ok
}

// Lookup returns the value of the first present name, in the given order.
func (m *MerchantParameters) Lookup(names ...string) (string, bool) {
	for _, name := range names {
		if value, ok := m.values[name]; ok {
			return value, true
		}
	}
	return "", false
}

func (m *MerchantParameters) Keys() []string {
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

func (m *MerchantParameters) Len() int {
	return len(m.keys)
}

// MarshalJSON writes a compact object in insertion order without HTML escaping.
func (m *MerchantParameters) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(&buf, key); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeString(&buf, m.values[key]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a flat JSON object keeping field order. Scalars that are
// not strings are kept as their literal JSON text.
func (m *MerchantParameters) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	token, err := decoder.Token()
	if err != nil {
		return err
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("parameters must be a JSON object")
	}

	parsed := NewMerchantParameters()
	for decoder.More() {
		token, err = decoder.Token()
		if err != nil {
			return err
		}
		key, ok := token.(string)
		if !ok {
			return fmt.Errorf("unexpected key token %v", token)
		}
		var raw json.RawMessage
		if err = decoder.Decode(&raw); err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
		value, err := scalar(raw)
		if err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
		parsed.Set(key, value)
	}
	if _, err = decoder.Token(); err != nil {
		return err
	}

	*m = *parsed
	return nil
}

func writeString(buf *bytes.Buffer, value string) error {
	encoder := json.NewEncoder(buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(value); err != nil {
		return err
	}
	// Encode terminates every value with a newline
	buf.Truncate(buf.Len() - 1)
	return nil
}

func scalar(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "", fmt.Errorf("empty value")
	}
	switch trimmed[0] {
	case '"':
		var value string
		if err := json.Unmarshal(trimmed, &value); err != nil {
			return "", err
		}
		return value, nil
	case '{', '[':
		return "", fmt.Errorf("nested values are not supported")
	case 'n':
		return "", nil
	default:
		return string(trimmed), nil
	}
}
