package cli

var (
	GetIndexConfig        = getIndexConfig
	PrintReconcileResults = printReconcileResults
	ToClassifyOutput      = toClassifyOutput
)
