// Package docs EFA Transit API.
//
// Сервис запросов к серверам EFA (Elektronische Fahrplanauskunft).
// Один экземпляр обслуживает одного провайдера из реестра, выбранного через EFA_PROVIDER.
//
// Основные возможности:
// - Автодополнение станций, адресов и POI
// - Поиск ближайших остановок по станции или координате
// - Табло отправлений, в том числе для нескольких ближайших остановок
// - Поиск маршрутов и продолжение по одноразовому токену context
//
//	Schemes: http, https
//	BasePath: /
//	Version: 1.0.0
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
// swagger:meta
package docs
