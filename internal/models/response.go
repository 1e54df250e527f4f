package models

import (
	"encoding/json"
	"net/http"
)

type ResponseCode int

const (
	CodeSuccess ResponseCode = iota
	CodeError
	CodePermissionDenied
	CodeEmailNotVerified
	CodePhoneNotVerified
	CodeSmsSendFailure
)

// Response — единый конверт клиентского API. Транспортный статус всегда
// 200, исход операции несёт StatusCode (контракт мобильного клиента).
type Response struct {
	StatusCode ResponseCode `json:"statusCode"`
	Message    string       `json:"message,omitempty"`
	Data       any          `json:"data,omitempty"`
}

func (r Response) IsSuccess() bool { return r.StatusCode == CodeSuccess }

func writeJSON(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

func WriteOK(w http.ResponseWriter, data any) {
	writeJSON(w, Response{StatusCode: CodeSuccess, Data: data})
}

func WriteOKMessage(w http.ResponseWriter, message string, data any) {
	writeJSON(w, Response{StatusCode: CodeSuccess, Message: message, Data: data})
}

func WriteFail(w http.ResponseWriter, message string) {
	writeJSON(w, Response{StatusCode: CodeError, Message: message})
}

func WriteStatus(w http.ResponseWriter, code ResponseCode, message string) {
	writeJSON(w, Response{StatusCode: code, Message: message})
}
