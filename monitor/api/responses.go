package api

import (
	"net/http"

	"github.com/absmach/fldash/monitor"
	"github.com/absmach/supermq"
)

var (
	_ supermq.Response = (*reportRes)(nil)
	_ supermq.Response = (*historyRes)(nil)
	_ supermq.Response = (*convergenceRes)(nil)
	_ supermq.Response = (*workersRes)(nil)
)

type reportRes struct {
	monitor.Report
}

func (res reportRes) Code() int {
	return http.StatusOK
}

func (res reportRes) Headers() map[string]string {
	return map[string]string{}
}

func (res reportRes) Empty() bool {
	return false
}

type historyRes struct {
	monitor.HistoryPage
}

func (res historyRes) Code() int {
	return http.StatusOK
}

func (res historyRes) Headers() map[string]string {
	return map[string]string{}
}

func (res historyRes) Empty() bool {
	return false
}

type convergenceRes struct {
	monitor.ConvergenceSummary
}

func (res convergenceRes) Code() int {
	return http.StatusOK
}

func (res convergenceRes) Headers() map[string]string {
	return map[string]string{}
}

func (res convergenceRes) Empty() bool {
	return false
}

type workersRes struct {
	monitor.WorkerOverview
}

func (res workersRes) Code() int {
	return http.StatusOK
}

func (res workersRes) Headers() map[string]string {
	return map[string]string{}
}

func (res workersRes) Empty() bool {
	return false
}
