package model

type License struct {
	Key            string `json:"key"`
	EntitledVMs    int    `json:"entitled_vms"`
	ExpirationDate string `json:"expiration_date"`
	DaysToExpiry   int    `json:"days_to_expiry"`
}

type VpgStatus struct {
	Healthy  int `json:"healthy"`
	Warning  int `json:"warning"`
	Critical int `json:"critical"`
}

type Site struct {
	Name         string `json:"name"`
	ProtectedVMs int    `json:"protected_vms"`
	VPGs         int    `json:"vpgs"`
}

type Consumption struct {
	ProtectedVMs     int       `json:"protected_vms"`
	VPGs             int       `json:"vpgs"`
	VpgStatus        VpgStatus `json:"vpg_status"`
	JournalStorageGB float64   `json:"journal_storage_gb"`
	Sites            []Site    `json:"sites"`
}
