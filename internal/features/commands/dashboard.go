package commands

const (
	Initialize          = "GDC.DASH/CMD.INITIALIZE"
	RenameDashboard     = "GDC.DASH/CMD.RENAME"
	ResetDashboard      = "GDC.DASH/CMD.RESET"
	SaveDashboard       = "GDC.DASH/CMD.SAVE"
	ExportDashboardXLSX = "GDC.DASH/CMD.EXPORT.XLSX"
	RefreshCatalog      = "GDC.DASH/CMD.CATALOG.REFRESH"
	ResetQueryCache     = "GDC.DASH/CMD.QUERY.CACHE.RESET"
)

type InitializePayload struct{}

type RenamePayload struct {
	Title string `json:"newTitle"`
}

type ResetPayload struct{}

type SavePayload struct {
	Title string `json:"title,omitempty"`
}

type ExportXLSXPayload struct {
	FileName string `json:"fileName,omitempty"`
}

type RefreshCatalogPayload struct{}

// ResetQueryCachePayload drops the cache of one query type, or of all of them when empty.
type ResetQueryCachePayload struct {
	QueryType string `json:"queryType,omitempty"`
}

func InitializeDashboard(correlationID ...string) Command {
	return newCommand(Initialize, InitializePayload{}, correlationID)
}

func Rename(title string, correlationID ...string) Command {
	return newCommand(RenameDashboard, RenamePayload{Title: title}, correlationID)
}

func Reset(correlationID ...string) Command {
	return newCommand(ResetDashboard, ResetPayload{}, correlationID)
}

func Save(title string, correlationID ...string) Command {
	return newCommand(SaveDashboard, SavePayload{Title: title}, correlationID)
}

func ExportXLSX(fileName string, correlationID ...string) Command {
	return newCommand(ExportDashboardXLSX, ExportXLSXPayload{FileName: fileName}, correlationID)
}

func RefreshCatalogCmd(correlationID ...string) Command {
	return newCommand(RefreshCatalog, RefreshCatalogPayload{}, correlationID)
}

func ResetQueries(queryType string, correlationID ...string) Command {
	return newCommand(ResetQueryCache, ResetQueryCachePayload{QueryType: queryType}, correlationID)
}
