package api

// @title PageLab API
// @version v1.0.0
// @description Lighthouse report ingestion, URL KPI averages and saved URL filters.

// @host localhost:8000
// @BasePath /
// @schemes http
// @query.collection.format multi
