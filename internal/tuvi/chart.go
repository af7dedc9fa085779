package tuvi

import (
	"fmt"
	"time"

	"github.com/6tail/lunar-go/calendar"
)

// Heavenly stems and earthly branches in Vietnamese, indexed in cycle order.
var (
	thienCan = [10]string{"Giáp", "Ất", "Bính", "Đinh", "Mậu", "Kỷ", "Canh", "Tân", "Nhâm", "Quý"}
	diaChi   = [12]string{"Tý", "Sửu", "Dần", "Mão", "Thìn", "Tỵ", "Ngọ", "Mùi", "Thân", "Dậu", "Tuất", "Hợi"}
)

// lunar-go reports stems and branches as Chinese characters.
var (
	canFromCN = map[string]string{
		"甲": "Giáp", "乙": "Ất", "丙": "Bính", "丁": "Đinh", "戊": "Mậu",
		"己": "Kỷ", "庚": "Canh", "辛": "Tân", "壬": "Nhâm", "癸": "Quý",
	}
	chiFromCN = map[string]string{
		"子": "Tý", "丑": "Sửu", "寅": "Dần", "卯": "Mão", "辰": "Thìn", "巳": "Tỵ",
		"午": "Ngọ", "未": "Mùi", "申": "Thân", "酉": "Dậu", "戌": "Tuất", "亥": "Hợi",
	}
)

// House names walked counter-clockwise from the Menh house.
var cungNames = [12]string{
	"Mệnh", "Phụ mẫu", "Phúc đức", "Điền trạch", "Quan lộc", "Nô bộc",
	"Thiên di", "Tật ách", "Tài bạch", "Tử tức", "Phu thê", "Huynh đệ",
}

// napAm maps a stem+branch pair to its element (the sexagenary nap-am table).
var napAm = map[string]string{
	"GiápTý": "Kim", "ẤtSửu": "Kim", "BínhDần": "Hỏa", "ĐinhMão": "Hỏa", "MậuThìn": "Mộc", "KỷTỵ": "Mộc",
	"CanhNgọ": "Thổ", "TânMùi": "Thổ", "NhâmThân": "Kim", "QuýDậu": "Kim", "GiápTuất": "Hỏa", "ẤtHợi": "Hỏa",
	"BínhTý": "Thủy", "ĐinhSửu": "Thủy", "MậuDần": "Thổ", "KỷMão": "Thổ", "CanhThìn": "Kim", "TânTỵ": "Kim",
	"NhâmNgọ": "Mộc", "QuýMùi": "Mộc", "GiápThân": "Thủy", "ẤtDậu": "Thủy", "BínhTuất": "Thổ", "ĐinhHợi": "Thổ",
	"MậuTý": "Hỏa", "KỷSửu": "Hỏa", "CanhDần": "Mộc", "TânMão": "Mộc", "NhâmThìn": "Thủy", "QuýTỵ": "Thủy",
	"GiápNgọ": "Kim", "ẤtMùi": "Kim", "BínhThân": "Hỏa", "ĐinhDậu": "Hỏa", "MậuTuất": "Mộc", "KỷHợi": "Mộc",
	"CanhTý": "Thổ", "TânSửu": "Thổ", "NhâmDần": "Kim", "QuýMão": "Kim", "GiápThìn": "Hỏa", "ẤtTỵ": "Hỏa",
	"BínhNgọ": "Thủy", "ĐinhMùi": "Thủy", "MậuThân": "Thổ", "KỷDậu": "Thổ", "CanhTuất": "Kim", "TânHợi": "Kim",
	"NhâmTý": "Mộc", "QuýSửu": "Mộc", "GiápDần": "Thủy", "ẤtMão": "Thủy", "BínhThìn": "Thổ", "ĐinhTỵ": "Thổ",
	"MậuNgọ": "Hỏa", "KỷMùi": "Hỏa", "CanhThân": "Mộc", "TânDậu": "Mộc", "NhâmTuất": "Thủy", "QuýHợi": "Thủy",
}

// elementCuc maps the Menh house element to the cuc number.
var elementCuc = map[string]int{"Thủy": 2, "Mộc": 3, "Kim": 4, "Thổ": 5, "Hỏa": 6}

// House is one of the twelve positions on the chart wheel.
type House struct {
	CungName   string   `json:"cung_name"`
	Branch     string   `json:"branch"`
	MajorStars []string `json:"major_stars"`
	MinorStars []string `json:"minor_stars"`
	Analysis   string   `json:"analysis"`
}

// AspectScores are coarse 1-10 ratings derived from the chart.
type AspectScores struct {
	Personality int `json:"personality"`
	Career      int `json:"career"`
	Love        int `json:"love"`
	Wealth      int `json:"wealth"`
	Health      int `json:"health"`
}

// ChartInput echoes the birth data the chart was computed from.
type ChartInput struct {
	BirthDate  string  `json:"birth_date"`
	BirthHour  int     `json:"birth_hour"`
	Gender     string  `json:"gender"`
	BirthPlace *string `json:"birth_place,omitempty"`
	IsLunar    bool    `json:"is_lunar"`
	Can        string  `json:"can"`
	Chi        string  `json:"chi"`
	Menh       string  `json:"menh"`
}

// Chart is the full computed wheel.
type Chart struct {
	Input   ChartInput   `json:"input"`
	Houses  []House      `json:"houses"`
	Aspects AspectScores `json:"aspects"`
}

// lunarDate is the lunar calendar view of a birth date.
type lunarDate struct {
	day, month, year int
	canYear, chiYear string
	solarDate        time.Time
}

// toLunar converts the birth date. When isLunar is set the date is already
// lunar and the solar equivalent is derived instead.
func toLunar(birthDate time.Time, isLunar bool) lunarDate {
	y, m, d := birthDate.Year(), int(birthDate.Month()), birthDate.Day()

	var lunar *calendar.Lunar
	var solar *calendar.Solar
	if isLunar {
		lunar = calendar.NewLunarFromYmd(y, m, d)
		solar = lunar.GetSolar()
	} else {
		solar = calendar.NewSolarFromYmd(y, m, d)
		lunar = solar.GetLunar()
	}

	can, ok := canFromCN[lunar.GetYearGan()]
	if !ok {
		can = "Giáp"
	}
	chi, ok := chiFromCN[lunar.GetYearZhi()]
	if !ok {
		chi = "Tý"
	}

	return lunarDate{
		day:     lunar.GetDay(),
		month:   lunar.GetMonth(),
		year:    lunar.GetYear(),
		canYear: can,
		chiYear: chi,
		solarDate: time.Date(solar.GetYear(), time.Month(solar.GetMonth()), solar.GetDay(),
			0, 0, 0, 0, time.UTC),
	}
}

// hourToBranchIndex maps a 0-23 clock hour onto the 12 two-hour branches,
// with 23:00-00:59 belonging to Ty.
func hourToBranchIndex(hour int) int {
	if hour >= 23 || hour < 1 {
		return 0
	}
	return ((hour + 1) / 2) % 12
}

// menhIndex places the Menh house: start at Dan (index 2), forward by lunar
// month, back by birth hour branch. Leap months count as their base month.
func menhIndex(lunarMonth, hourIdx int) int {
	m := lunarMonth
	if m < 0 {
		m = -m
	}
	idx := (2 + (m - 1) - hourIdx) % 12
	if idx < 0 {
		idx += 12
	}
	return idx
}

func stemIndex(can string) int {
	for i, s := range thienCan {
		if s == can {
			return i
		}
	}
	return 0
}

// cucOf derives the cuc number from the Menh house's nap-am element. The
// stem of the Menh branch follows the ngu-ho-don rule: the year stem fixes
// the stem at Dan, and stems advance with the branches from there.
func cucOf(canYear string, menhIdx int) int {
	startCanOfTiger := [5]int{2, 4, 6, 8, 0}[stemIndex(canYear)%5]
	steps := menhIdx - 2
	if steps < 0 {
		steps += 12
	}
	menhCan := thienCan[(startCanOfTiger+steps)%10]
	element, ok := napAm[menhCan+diaChi[menhIdx]]
	if !ok {
		element = "Thủy"
	}
	return elementCuc[element]
}

// tuViPosition places the Tu Vi star from the lunar day and cuc number.
func tuViPosition(cuc, lunarDay int) int {
	quotient := lunarDay / cuc
	remainder := lunarDay % cuc
	var posFromTiger int
	if remainder == 0 {
		posFromTiger = quotient - 1
	} else {
		posFromTiger = quotient + (cuc - remainder)
	}
	return (2 + posFromTiger) % 12
}

// The Tu Vi group runs backwards from Tu Vi; the Thien Phu group runs
// forwards from Thien Phu, which mirrors Tu Vi across the Dan-Thân axis.
var (
	tuViGroup = []struct {
		star   string
		offset int
	}{
		{"Tử Vi", 0}, {"Thiên Cơ", 1}, {"Thái Dương", 3},
		{"Vũ Khúc", 4}, {"Thiên Đồng", 5}, {"Liêm Trinh", 8},
	}
	thienPhuGroup = []struct {
		star   string
		offset int
	}{
		{"Thiên Phủ", 0}, {"Thái Âm", 1}, {"Tham Lang", 2}, {"Cự Môn", 3},
		{"Thiên Tướng", 4}, {"Thiên Lương", 5}, {"Thất Sát", 6}, {"Phá Quân", 10},
	}
)

// GenerateChart computes the full chart wheel for a birth moment. The result
// is deterministic.
func GenerateChart(birthDate time.Time, birthHour int, gender string, birthPlace *string, isLunar bool) (*Chart, time.Time) {
	ld := toLunar(birthDate, isLunar)
	menhElement, ok := napAm[ld.canYear+ld.chiYear]
	if !ok {
		menhElement = "Kim"
	}

	hourIdx := hourToBranchIndex(birthHour)
	menhIdx := menhIndex(ld.month, hourIdx)
	cuc := cucOf(ld.canYear, menhIdx)
	tuViPos := tuViPosition(cuc, ld.day)

	houses := make([]House, 12)
	for i := range houses {
		houses[i] = House{Branch: diaChi[i], MajorStars: []string{}, MinorStars: []string{}}
	}
	for i, name := range cungNames {
		pos := (menhIdx - i) % 12
		if pos < 0 {
			pos += 12
		}
		houses[pos].CungName = name
	}

	for _, s := range tuViGroup {
		pos := (tuViPos - s.offset) % 12
		if pos < 0 {
			pos += 12
		}
		houses[pos].MajorStars = append(houses[pos].MajorStars, s.star)
	}
	thienPhuPos := (16 - tuViPos) % 12
	for _, s := range thienPhuGroup {
		pos := (thienPhuPos + s.offset) % 12
		houses[pos].MajorStars = append(houses[pos].MajorStars, s.star)
	}

	for i := range houses {
		stars := "Vô chính diệu"
		if len(houses[i].MajorStars) > 0 {
			stars = ""
			for j, st := range houses[i].MajorStars {
				if j > 0 {
					stars += ", "
				}
				stars += st
			}
		}
		houses[i].Analysis = fmt.Sprintf("%s có %s", houses[i].CungName, stars)
	}

	chart := &Chart{
		Input: ChartInput{
			BirthDate:  birthDate.Format("2006-01-02"),
			BirthHour:  birthHour,
			Gender:     gender,
			BirthPlace: birthPlace,
			IsLunar:    isLunar,
			Can:        ld.canYear,
			Chi:        ld.chiYear,
			Menh:       menhElement,
		},
		Houses:  houses,
		Aspects: AspectScores{Personality: 5, Career: 5, Love: 5, Wealth: 5, Health: 5},
	}
	return chart, ld.solarDate
}
