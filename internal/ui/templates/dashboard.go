// Package templates holds the server-rendered dashboard page. The page is a
// static shell; every panel loads its content over the datastar SSE
// endpoints so a window change only re-streams the affected fragments.
package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

const dashboardPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8"/>
<meta name="viewport" content="width=device-width, initial-scale=1"/>
<title>E-Commerce Orders Dashboard</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0/bundles/datastar.js"></script>
<style>
body { font-family: system-ui, sans-serif; margin: 0; background: #f5f7fa; color: #1f2933; }
header { background: #102a43; color: #fff; padding: 1rem 2rem; }
main { padding: 1.5rem 2rem; display: grid; gap: 1.5rem; }
section { background: #fff; border-radius: 8px; padding: 1rem 1.5rem; box-shadow: 0 1px 3px rgba(0,0,0,.08); }
.table-pair { display: grid; grid-template-columns: 1fr 1fr; gap: 1rem; }
.modern-table { width: 100%; border-collapse: collapse; }
.modern-table th, .modern-table td { text-align: left; padding: .4rem .6rem; border-bottom: 1px solid #e4e7eb; }
.window-form input { padding: .3rem; margin-right: .5rem; }
.metric { display: inline-block; margin-right: 2rem; }
.metric .value { font-size: 1.6rem; font-weight: 700; }
</style>
</head>
<body data-signals="{monthlyData: [], rfmSummary: {}}">
<header>
<h1>E-Commerce Orders Dashboard</h1>
</header>
<main data-on-load="@get('/sse/refresh-all')">
<section>
<h2>Filter Window</h2>
<form class="window-form" data-on-submit="evt.preventDefault(); fetch('/api/window?start='+evt.target.start.value+'&end='+evt.target.end.value, {method:'PUT'}).then(() => @get('/sse/refresh-all'))">
<input type="date" name="start" required/>
<input type="date" name="end" required/>
<button type="submit">Apply</button>
</form>
</section>
<section>
<h2>Company Revenue</h2>
<div id="monthly-content">Loading revenue trend…</div>
<div data-text="JSON.stringify($monthlyData)" hidden></div>
</section>
<section>
<h2>Best and Worst Selling Products</h2>
<div id="categories-content" data-on-load="@get('/sse/category-performance')">Loading product ranking…</div>
</section>
<section>
<h2>Customer Distribution by City and State</h2>
<div id="customer-locations-content" data-on-load="@get('/sse/customer-locations')">Loading customer distribution…</div>
</section>
<section>
<h2>Seller Distribution by City and State</h2>
<div id="seller-locations-content" data-on-load="@get('/sse/seller-locations')">Loading seller distribution…</div>
</section>
<section>
<h2>Customer RFM Analysis</h2>
<div id="rfm-content" data-on-load="@get('/sse/rfm-summary')">Loading RFM metrics…</div>
<div class="metric"><div class="value" data-text="($rfmSummary.avg_recency ?? 0).toFixed(1)"></div>Average Recency (days)</div>
<div class="metric"><div class="value" data-text="($rfmSummary.avg_frequency ?? 0).toFixed(2)"></div>Average Frequency</div>
<div class="metric"><div class="value" data-text="($rfmSummary.avg_monetary ?? 0).toFixed(2)"></div>Average Monetary</div>
</section>
</main>
</body>
</html>`

// Dashboard renders the dashboard shell.
func Dashboard() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, dashboardPage)
		return err
	})
}
