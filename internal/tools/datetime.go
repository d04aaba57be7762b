package tools

import (
	"context"

	"github.com/fmueller/voxtools/internal/datetime"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const timezoneParamDescription = "IANA time zone such as Asia/Shanghai or UTC; defaults to the local zone"

func datetimeTools(deps Deps) []server.ServerTool {
	clock := deps.Clock

	timezone := func(req mcp.CallToolRequest) string {
		return req.GetString("timezone_str", deps.DefaultTimezone)
	}
	textTool := func(name, description string, fn func(tz string) (string, error)) server.ServerTool {
		tool := mcp.NewTool(name,
			mcp.WithDescription(description),
			mcp.WithString("timezone_str", mcp.Description(timezoneParamDescription)),
		)
		return server.ServerTool{
			Tool: tool,
			Handler: func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				out, err := fn(timezone(req))
				if err != nil {
					return mcp.NewToolResultError("error: " + err.Error()), nil
				}
				return mcp.NewToolResultText(out), nil
			},
		}
	}

	info := server.ServerTool{
		Tool: mcp.NewTool("get_date_info",
			mcp.WithDescription("Get a detailed breakdown of the current date: weekday (0=Monday), ISO week, day of year, leap year."),
			mcp.WithString("timezone_str", mcp.Description(timezoneParamDescription)),
		),
		Handler: func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			out, err := clock.Info(timezone(req))
			if err != nil {
				return jsonResult(map[string]string{"error": err.Error()}, true), nil
			}
			return jsonResult(out, false), nil
		},
	}

	format := server.ServerTool{
		Tool: mcp.NewTool("format_date",
			mcp.WithDescription("Format a YYYY-MM-DD date, or today/now, with a strftime pattern such as %Y-%m-%d, %Y年%m月%d日 or %m/%d/%Y."),
			mcp.WithString("date_str",
				mcp.Required(),
				mcp.Description("Date as YYYY-MM-DD, or one of today, now, 当前, 今天"),
			),
			mcp.WithString("format_str",
				mcp.Description("strftime pattern"),
				mcp.DefaultString(datetime.DefaultFormat),
			),
			mcp.WithString("timezone_str", mcp.Description(timezoneParamDescription)),
		),
		Handler: func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			date, err := req.RequireString("date_str")
			if err != nil {
				return mcp.NewToolResultError("error: " + err.Error()), nil
			}
			out, err := clock.Format(date, req.GetString("format_str", datetime.DefaultFormat), timezone(req))
			if err != nil {
				return mcp.NewToolResultError("error: " + err.Error()), nil
			}
			return mcp.NewToolResultText(out), nil
		},
	}

	zones := server.ServerTool{
		Tool: mcp.NewTool("list_common_timezones",
			mcp.WithDescription("List commonly used IANA time zones."),
		),
		Handler: func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return jsonResult(datetime.CommonTimezones(), false), nil
		},
	}

	return []server.ServerTool{
		textTool("get_current_date", "Get the current date as YYYY-MM-DD.", clock.CurrentDate),
		textTool("get_current_time", "Get the current time as HH:MM:SS.", clock.CurrentTime),
		textTool("get_current_datetime", "Get the current date and time as YYYY-MM-DD HH:MM:SS.", clock.CurrentDateTime),
		info,
		format,
		zones,
	}
}
