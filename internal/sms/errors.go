package sms

import "fmt"

// providerErrors maps the provider's documented send error codes
// (returned in the Value field when RetStatus is not OK, or as a short
// Value on an OK status) to its published Persian descriptions. The
// codes and texts belong to the provider's contract; do not edit them.
var providerErrors = map[string]string{
	"0":  "نام کاربری یا رمز عبور اشتباه می باشد",
	"2":  "اعتبار کافی نمی باشد",
	"3":  "محدودیت در ارسال روزانه",
	"4":  "محدودیت در حجم ارسال",
	"5":  "شماره فرستنده معتبر نمی باشد",
	"6":  "سامانه در حال بروزرسانی می باشد",
	"7":  "متن حاوی کلمه فیلتر شده می باشد",
	"9":  "ارسال از خطوط عمومی از طریق وب سرویس امکان پذیر نمی باشد",
	"10": "کاربر مورد نظر فعال نمی باشد",
	"11": "ارسال نشده",
	"12": "مدارک کاربر کامل نمی باشد",
	"14": "متن حاوی لینک می باشد",
	"15": "ارسال به بیش از ۱ شماره بدون درج لغو۱۱ امکان پذیر نمی باشد",
	"16": "شماره گیرنده یافت نشد",
	"17": "متن پیامک خالی می باشد",
	"18": "شماره موبایل معتبر نمی باشد",
	"35": "شماره در لیست سیاه مخابرات می باشد",
}

// errorMessage resolves a provider error code, falling back to a
// generic message that still carries the raw code.
func errorMessage(code string) string {
	if msg, ok := providerErrors[code]; ok {
		return msg
	}
	return fmt.Sprintf("unknown provider error: %s", code)
}
