package grpcsvc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// CodecName — content-subtype, под которым зарегистрирован JSON-кодек.
// Клиент выбирает его через grpc.CallContentSubtype(CodecName).
const CodecName = "json"

// jsonCodec кодирует сообщения OrderService в JSON. Сообщения сервиса —
// обычные Go-структуры с json-тегами, тот же формат отдаёт HTTP API.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
