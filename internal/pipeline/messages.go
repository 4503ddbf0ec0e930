package pipeline

import (
	"fmt"

	"github.com/sells-group/lead-finder/internal/places"
)

// Messages are the user-facing progress texts. Format verbs are noted per
// field.
type Messages struct {
	SearchingPlaces string
	NoPlaces        string
	PlacesFound     string // %d places
	Processing      string // %s name, %d index, %d total
	Completed       string // %d results
	Stopped         string // %d results
	Canceled        string // %d results
	ErrorPrefix     string
	InvalidPlaces   string
	QuotaExceeded   string
	PlaceTimeout    string
}

// ThaiMessages returns the default Thai texts.
func ThaiMessages() Messages {
	return Messages{
		SearchingPlaces: "กำลังค้นหาสถานที่จาก Google Maps...",
		NoPlaces:        "ไม่พบสถานที่ในพื้นที่ที่กำหนด กรุณาลองเปลี่ยนคำค้นหาหรือขยายรัศมี",
		PlacesFound:     "พบสถานที่ %d แห่ง กำลังเริ่มค้นหาข้อมูลผู้ติดต่อ...",
		Processing:      "กำลังประมวลผล %s (%d/%d)",
		Completed:       "🎉 ค้นหาเสร็จสิ้น พบผลลัพธ์ %d รายการ",
		Stopped:         "การค้นหาถูกหยุดโดยผู้ใช้ (พบผลลัพธ์ %d รายการ)",
		Canceled:        "การค้นหาถูกยกเลิกก่อนเสร็จสิ้น (พบผลลัพธ์ %d รายการ)",
		ErrorPrefix:     "เกิดข้อผิดพลาดในการประมวลผล: ",
		InvalidPlaces:   "Google Maps API key ไม่ถูกต้องหรือถูกปฏิเสธ",
		QuotaExceeded:   "เกินโควต้าการใช้งาน Google Maps API",
		PlaceTimeout:    "หมดเวลาการประมวลผลสถานที่",
	}
}

func (m Messages) placesFound(n int) string { return fmt.Sprintf(m.PlacesFound, n) }

func (m Messages) processing(name string, i, n int) string {
	return fmt.Sprintf(m.Processing, name, i, n)
}

func (m Messages) completed(n int) string { return fmt.Sprintf(m.Completed, n) }

func (m Messages) stopped(n int) string { return fmt.Sprintf(m.Stopped, n) }

func (m Messages) canceled(n int) string { return fmt.Sprintf(m.Canceled, n) }

// placesFailure renders a fatal places error: the localized reason plus a
// short description.
func (m Messages) placesFailure(err error) string {
	switch {
	case places.IsKind(err, places.KindInvalidCredentials):
		return m.ErrorPrefix + m.InvalidPlaces
	case places.IsKind(err, places.KindQuotaExceeded):
		return m.ErrorPrefix + m.QuotaExceeded
	default:
		return m.ErrorPrefix + shortError(err)
	}
}

// shortError keeps user-visible error text to one bounded line.
func shortError(err error) string {
	const max = 120
	s := []rune(err.Error())
	if len(s) > max {
		return string(s[:max]) + "..."
	}
	return string(s)
}
