// File: internal/model/droppoint.go
package model

import "time"

// DropPoint 是場館內供訪客投放空瓶的地點。
// Number 是唯一編號，移除後不會重新分配；Removed 非 nil 表示已自場館撤除。
type DropPoint struct {
	Number    int        `db:"number" json:"number"`
	Removed   *time.Time `db:"removed" json:"removed,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// Location 紀錄 drop point 在某時間點的實際位置。
// 位置可能隨時變動，因此以歷史紀錄保存；最新一筆即為目前位置。
type Location struct {
	ID          int       `db:"id" json:"id"`
	Number      int       `db:"number" json:"number"`
	StartTime   time.Time `db:"start_time" json:"start_time"`
	Description string    `db:"description" json:"description"`
	Lat         float64   `db:"lat" json:"lat"`
	Lng         float64   `db:"lng" json:"lng"`
	Level       int       `db:"level" json:"level"`
}

// MaxDescription 是位置描述的長度上限。
const MaxDescription = 140

// Capacity 紀錄 drop point 在某時間點的空箱數量。
// Crates 為 0 表示牆上只有標示牌而沒有箱子。
type Capacity struct {
	ID        int       `db:"id" json:"id"`
	Number    int       `db:"number" json:"number"`
	StartTime time.Time `db:"start_time" json:"start_time"`
	Crates    int       `db:"crates" json:"crates"`
}

// DefaultCrateCount 是未指定時的預設箱數。
const DefaultCrateCount = 1

// ReportStates 列出訪客回報的合法狀態。
var ReportStates = []string{
	"DEFAULT",
	"NO_CRATES",
	"EMPTY",
	"SOME_BOTTLES",
	"REASONABLY_FULL",
	"FULL",
	"OVERFLOW",
}

// Report 是訪客對 drop point 狀態的回報。
type Report struct {
	ID     int       `db:"id" json:"id"`
	Number int       `db:"number" json:"number"`
	Time   time.Time `db:"time" json:"time"`
	State  string    `db:"state" json:"state"`
}

// VisitActions 列出收瓶人員巡視後可登記的動作。
var VisitActions = []string{
	"EMPTIED",
	"ADDED_CRATE",
	"REMOVED_CRATE",
	"RELOCATED",
	"REMOVED",
	"NO_ACTION",
}

// Visit 是收瓶人員的一次巡視紀錄。
type Visit struct {
	ID     int       `db:"id" json:"id"`
	Number int       `db:"number" json:"number"`
	Time   time.Time `db:"time" json:"time"`
	Action string    `db:"action" json:"action"`
}

// ValidReportState 回報狀態是否合法
func ValidReportState(s string) bool {
	for _, v := range ReportStates {
		if v == s {
			return true
		}
	}
	return false
}

// ValidVisitAction 巡視動作是否合法
func ValidVisitAction(a string) bool {
	for _, v := range VisitActions {
		if v == a {
			return true
		}
	}
	return false
}
