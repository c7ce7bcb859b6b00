package platform

import "go.uber.org/fx"

var Module = fx.Module("platform",
	fx.Provide(NewHTTPClient),
	fx.Provide(func(c *HTTPClient) Client { return c }),
)
