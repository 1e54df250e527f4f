package ttlock

import "fmt"

// VendorError — ненулевой errcode в ответе облака TTLock.
type VendorError struct {
	Code int
	Msg  string
}

func (e *VendorError) Error() string {
	return fmt.Sprintf("ttlock: errcode=%d: %s", e.Code, e.Msg)
}

type apiStatus struct {
	Errcode int    `json:"errcode"`
	Errmsg  string `json:"errmsg"`
}

type RegisterResponse struct {
	Username string `json:"username"`
}

type AccessTokenResponse struct {
	Uid          int64  `json:"uid"`
	AccessToken  string `json:"access_token"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
	RefreshToken string `json:"refresh_token"`
}

type Lock struct {
	LockID           int    `json:"lockId"`
	LockName         string `json:"lockName"`
	LockAlias        string `json:"lockAlias"`
	LockMac          string `json:"lockMac"`
	ElectricQuantity int    `json:"electricQuantity"`
	FeatureValue     string `json:"featureValue"`
	HasGateway       int    `json:"hasGateway"`
	LockData         string `json:"lockData"`
	GroupID          int    `json:"groupId"`
	GroupName        string `json:"groupName"`
	Date             int64  `json:"date"`
}

type LockPage struct {
	List       []Lock `json:"list"`
	PageNo     int    `json:"pageNo"`
	PagesTotal int    `json:"pagesTotal"`
	Total      int    `json:"total"`
}

type LockDetail struct {
	LockID           int    `json:"lockId"`
	LockName         string `json:"lockName"`
	LockAlias        string `json:"lockAlias"`
	LockMac          string `json:"lockMac"`
	ElectricQuantity int    `json:"electricQuantity"`
	FeatureValue     string `json:"featureValue"`
	HasGateway       int    `json:"hasGateway"`
	Model            string `json:"modelNum"`
	FirmwareRevision string `json:"firmwareRevision"`
	HardwareRevision string `json:"hardwareRevision"`
}

type InitializeResult struct {
	LockID int `json:"lockId"`
	KeyID  int `json:"keyId"`
}

// LockRecord — событие из истории замка у вендора (проксируемый список,
// не путать с локальным AccessLog).
type LockRecord struct {
	RecordID         int64  `json:"recordId"`
	LockID           int    `json:"lockId"`
	RecordType       int    `json:"recordType"`
	Success          int    `json:"success"`
	Username         string `json:"username"`
	KeyboardPwd      string `json:"keyboardPwd"`
	LockDate         int64  `json:"lockDate"`
	ServerDate       int64  `json:"serverDate"`
	ElectricQuantity int    `json:"electricQuantity"`
}

type RecordPage struct {
	List       []LockRecord `json:"list"`
	PageNo     int          `json:"pageNo"`
	PagesTotal int          `json:"pagesTotal"`
	Total      int          `json:"total"`
}
