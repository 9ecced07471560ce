package domain

// PluginRecord is one input or output row exchanged with a plugin.
type PluginRecord map[string]interface{}

// Clone returns a shallow copy of the record.
func (r PluginRecord) Clone() PluginRecord {
	out := make(PluginRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
