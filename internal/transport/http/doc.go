// Package http implements the HTTP handlers of the holdings analysis API.
// Handlers parse and validate requests, call the service layer and format
// responses; no analysis logic lives here.
//
// # Routes
//
//	POST /api/portfolio/analyze                          analyze a stored file
//	POST /api/portfolio/upload                           analyze an uploaded file
//	GET  /api/portfolio/sample                           accepted file layout
//	GET  /api/portfolio/sample/download                  sample workbook or CSV
//	GET  /api/portfolios/{user_id}                       list stored files
//	GET  /api/portfolios/{user_id}/analyses              analyze every stored file
//	GET  /api/portfolios/{user_id}/{filename}/chart.png  allocation pie
//	GET  /api/portfolios/{user_id}/{filename}/holdings.csv
//
// # Error Handling
//
// All errors are RFC 7807 problem documents written by errors.ErrorHandler:
//
//	{
//	    "type": "/errors/holdings/missing-columns",
//	    "title": "Missing Required Columns",
//	    "status": 422,
//	    "missing": ["purchase_price"],
//	    "available": ["Stock", "Qty"],
//	    "trace_id": "..."
//	}
package http
