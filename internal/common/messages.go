package common

// User-facing texts. The distinct cases (validation, duplicate, connectivity,
// generic) must stay distinguishable even if the wording is localised.
const (
	MsgGenericError       = "Đã xảy ra lỗi."
	MsgAuthConnectivity   = "Không thể kết nối đến server."
	MsgRegisterSuccess    = "Đăng ký thành công. Bạn có thể đăng nhập!"
	MsgRoomNameRequired   = "Vui lòng nhập tên phòng!"
	MsgRoomCreateFailed   = "Tên phòng bị trùng hoặc có lỗi xảy ra!"
	MsgRoomConnectivity   = "Lỗi kết nối server"
	MsgDisplayNameMissing = "Vui lòng nhập tên bạn trước khi tham gia phòng!"

	DefaultRoomDescription = "Phòng học tập cùng nhau"

	TimerExpiredTitle = "Pomodoro"
	TimerExpiredBody  = "Hết giờ làm việc! Nghỉ giải lao thôi ☕"
)
