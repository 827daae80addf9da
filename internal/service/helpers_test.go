package service

import "encoding/json"

func rawJSON(s string) json.RawMessage { return json.RawMessage(s) }
