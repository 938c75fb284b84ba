package handler

type SendEmailRegisterRequest struct {
	Email string `json:"email"`
}

type RegisterRequest struct {
	UserID          string   `json:"user_id"`
	Password        string   `json:"password"`
	ConfirmPassword string   `json:"confirm_password"`
	PolicyIDs       []string `json:"policy_ids"`
	Name            string   `json:"name"`
	Username        string   `json:"username"`

	DeviceID   string `json:"device_id"`
	DeviceName string `json:"device_name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`

	DeviceID   string `json:"device_id"`
	DeviceName string `json:"device_name"`
}

type GoogleLoginRequest struct {
	IDToken string `json:"id_token"`

	DeviceID   string `json:"device_id"`
	DeviceName string `json:"device_name"`
}

type VerifyEmailRequest struct {
	Token string `json:"token"`
	Type  string `json:"type"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	UserID          string `json:"user_id"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type ConfirmDeleteAccountRequest struct {
	Token string `json:"token"`
}
