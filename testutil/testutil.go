package testutil

import (
	"fmt"
	"sort"

	"github.com/autom8ter/casewatch"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/tidwall/sjson"
)

// NewInput returns a fake case input source with the given status (transcribing or transcribed)
func NewInput(status string) map[string]any {
	input := map[string]any{
		"id":     gofakeit.UUID(),
		"name":   gofakeit.RandomString([]string{"audio", "text"}),
		"status": status,
		"content": map[string]any{
			"bucket": "inputs",
			"path":   fmt.Sprintf("inputs/%s.webm", gofakeit.UUID()),
		},
	}
	if status == "transcribed" {
		input["transcription"] = gofakeit.LoremIpsumSentence(12)
	}
	return input
}

// NewRequest returns a fake content request with the given status (processing or waiting_review)
func NewRequest(status string) map[string]any {
	result := map[string]any{"status": status}
	if status == "waiting_review" {
		result["data"] = map[string]any{
			"subjective": gofakeit.LoremIpsumSentence(8),
			"objective":  gofakeit.LoremIpsumSentence(8),
			"assessment": gofakeit.LoremIpsumSentence(8),
			"plan":       gofakeit.LoremIpsumSentence(8),
		}
	}
	return map[string]any{
		"requestId":    gofakeit.UUID(),
		"templateName": gofakeit.RandomString([]string{"SOAP", "Email"}),
		"instructions": gofakeit.LoremIpsumSentence(6),
		"result":       result,
	}
}

// NewContent returns a fake case content holding the requests
func NewContent(requests ...map[string]any) map[string]any {
	reqs := make([]any, len(requests))
	for i, r := range requests {
		reqs[i] = r
	}
	return map[string]any{
		"contentId":   gofakeit.UUID(),
		"customName":  gofakeit.BuzzWord(),
		"inputSource": NewInput("transcribed"),
		"requests":    reqs,
	}
}

// NewCase returns a fake case document
func NewCase(inputs []map[string]any, contents []map[string]any) map[string]any {
	c := map[string]any{
		"caseId":  gofakeit.UUID(),
		"ownerId": gofakeit.UUID(),
		"name":    gofakeit.PetName(),
	}
	if inputs != nil {
		in := make([]any, len(inputs))
		for i, input := range inputs {
			in[i] = input
		}
		c["inputs"] = in
	}
	if contents != nil {
		cs := make([]any, len(contents))
		for i, content := range contents {
			cs[i] = content
		}
		c["contents"] = cs
	}
	return c
}

// NewCaseDoc returns a fake case document as a Document
func NewCaseDoc(inputs []map[string]any, contents []map[string]any) *casewatch.Document {
	doc, err := casewatch.NewDocumentFrom(NewCase(inputs, contents))
	if err != nil {
		panic(err)
	}
	return doc
}

// FirestoreDocument encodes a go document as a typed-value document resource. A nil data returns an empty json object.
func FirestoreDocument(name string, data map[string]any) string {
	if data == nil {
		return "{}"
	}
	raw, err := sjson.Set("{}", "name", name)
	if err != nil {
		panic(err)
	}
	raw, err = sjson.SetRaw(raw, "fields", encodeFields(data))
	if err != nil {
		panic(err)
	}
	return raw
}

// FirestorePayload encodes a document-written payload out of before & after go documents (nil = absent)
func FirestorePayload(name string, before, after map[string]any) []byte {
	raw, err := sjson.SetRaw("{}", "oldValue", FirestoreDocument(name, before))
	if err != nil {
		panic(err)
	}
	raw, err = sjson.SetRaw(raw, "value", FirestoreDocument(name, after))
	if err != nil {
		panic(err)
	}
	return []byte(raw)
}

func encodeFields(data map[string]any) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	raw := "{}"
	for _, k := range keys {
		var err error
		raw, err = sjson.SetRaw(raw, escapePath(k), encodeValue(data[k]))
		if err != nil {
			panic(err)
		}
	}
	return raw
}

func encodeValue(value any) string {
	var (
		raw string
		err error
	)
	switch value := value.(type) {
	case nil:
		raw, err = sjson.SetRaw("{}", "nullValue", "null")
	case bool:
		raw, err = sjson.Set("{}", "booleanValue", value)
	case int:
		raw, err = sjson.Set("{}", "integerValue", fmt.Sprint(value))
	case float64:
		raw, err = sjson.Set("{}", "doubleValue", value)
	case string:
		raw, err = sjson.Set("{}", "stringValue", value)
	case map[string]any:
		raw, err = sjson.SetRaw("{}", "mapValue.fields", encodeFields(value))
	case []any:
		raw = `{"arrayValue":{"values":[]}}`
		for _, elem := range value {
			raw, err = sjson.SetRaw(raw, "arrayValue.values.-1", encodeValue(elem))
			if err != nil {
				break
			}
		}
	case []map[string]any:
		elems := make([]any, len(value))
		for i, v := range value {
			elems[i] = v
		}
		return encodeValue(elems)
	default:
		raw, err = sjson.Set("{}", "stringValue", fmt.Sprint(value))
	}
	if err != nil {
		panic(err)
	}
	return raw
}

func escapePath(key string) string {
	var escaped []rune
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', ':':
			escaped = append(escaped, '\\')
		}
		escaped = append(escaped, r)
	}
	return string(escaped)
}
