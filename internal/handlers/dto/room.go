package dto

type UpdateRoomRequest struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Symbol    string `json:"symbol"`
	Privacy   string `json:"privacy"`
	Password  string `json:"password"`
	UpdatedAt string `json:"updatedAt"`
}

type JoinRoomRequest struct {
	Password string `json:"password"`
}

type SetBalanceRequest struct {
	VirtualBalance *float64 `json:"virtual_balance" binding:"required"`
}
