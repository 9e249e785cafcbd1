// Package leads binds the CRM endpoints to query keys.
//
// UseLeads tracks the lead list under a fixed key. UseLeadDetails tracks a
// single lead and stays idle until it has a non-zero id; SetID moves it to
// another lead. Both return queries backed by a shared query.Client, so two
// views asking for the same lead share one request and one cache entry.
package leads
