package models

// Role identifies an official position in the relief approval chain.
type Role string

const (
	RoleTehsildar     Role = "tehsildar"
	RoleSDM           Role = "sdm"
	RoleRahatOperator Role = "rahat-operator"
	RoleOIC           Role = "oic"
	RoleADG           Role = "adg"
	RoleCollector     Role = "collector"
)

// Identity is the authenticated caller presented to the workflow engine.
type Identity struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}
