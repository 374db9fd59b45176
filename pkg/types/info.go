package types

import "sort"

// ============================================================================
//                              RouterInfo - 网关描述信息
// ============================================================================

// 网关描述信息的键
const (
	InfoDeviceType       = "deviceType"
	InfoFriendlyName     = "friendlyName"
	InfoLocation         = "location"
	InfoManufacturer     = "manufacturer"
	InfoModelDescription = "modelDescription"
)

// InfoEntry 一条描述信息
type InfoEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// RouterInfo 网关描述信息，条目始终按键的字典序排列
type RouterInfo struct {
	entries []InfoEntry
}

// NewRouterInfo 由无序映射构建按键排序的 RouterInfo
func NewRouterInfo(kv map[string]string) RouterInfo {
	entries := make([]InfoEntry, 0, len(kv))
	for k, v := range kv {
		entries = append(entries, InfoEntry{Key: k, Value: v})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
	return RouterInfo{entries: entries}
}

// Entries 返回按键排序的条目副本
func (ri RouterInfo) Entries() []InfoEntry {
	out := make([]InfoEntry, len(ri.entries))
	copy(out, ri.entries)
	return out
}

// Get 按键查找
func (ri RouterInfo) Get(key string) (string, bool) {
	i := sort.Search(len(ri.entries), func(i int) bool {
		return ri.entries[i].Key >= key
	})
	if i < len(ri.entries) && ri.entries[i].Key == key {
		return ri.entries[i].Value, true
	}
	return "", false
}

// Len 条目数
func (ri RouterInfo) Len() int {
	return len(ri.entries)
}
