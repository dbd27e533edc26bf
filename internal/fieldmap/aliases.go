package fieldmap

// Canonical field names. Raw records use whatever column names the
// hosted tables happen to have (Chinese labels, English labels, or
// both); everything past the normalizer speaks these names only.
const (
	Name            = "name"
	URL             = "url"
	Category        = "category"
	Sort            = "sort"
	Icon            = "icon"
	Description     = "description"
	FullDescription = "fullDescription"

	// Metadata-table descriptor fields.
	TableID   = "tableId"
	AppToken  = "appToken"
	TableName = "tableName"
)

// Mapping holds, per canonical field, the ordered list of source column
// names tried on read and the single column name used on write.
type Mapping struct {
	Read  map[string][]string `yaml:"read"`
	Write map[string]string   `yaml:"write"`
}

// Default returns the column names observed across the hosted datasets.
func Default() Mapping {
	return Mapping{
		Read: map[string][]string{
			Name:            {"name", "站点名称", "网站名称", "名称"},
			URL:             {"url", "网址", "URL"},
			Category:        {"category", "分类"},
			Sort:            {"sort", "排序"},
			Icon:            {"icon", "图标", "备用图标"},
			Description:     {"description", "描述"},
			FullDescription: {"fullDescription", "详细介绍"},

			TableID:   {"tableId", "表格ID", "table_id"},
			AppToken:  {"token", "应用Token", "appToken", "app_token"},
			TableName: {"name", "表格名称", "table_name"},
		},
		Write: map[string]string{
			Name:            "站点名称",
			URL:             "网址",
			Category:        "分类",
			Sort:            "排序",
			Icon:            "图标",
			Description:     "描述",
			FullDescription: "详细介绍",

			TableID:   "tableId",
			AppToken:  "token",
			TableName: "表格名称",
		},
	}
}

// merge layers extra over base: extra read aliases are tried first,
// extra write columns replace the defaults.
func merge(base, extra Mapping) Mapping {
	out := Mapping{
		Read:  make(map[string][]string, len(base.Read)),
		Write: make(map[string]string, len(base.Write)),
	}
	for k, v := range base.Read {
		out.Read[k] = append([]string(nil), v...)
	}
	for k, v := range base.Write {
		out.Write[k] = v
	}
	for k, v := range extra.Read {
		out.Read[k] = append(append([]string(nil), v...), out.Read[k]...)
	}
	for k, v := range extra.Write {
		if v != "" {
			out.Write[k] = v
		}
	}
	return out
}
