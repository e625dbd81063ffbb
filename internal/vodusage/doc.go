// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

/*
Package vodusage reads finished viewing sessions from VODUsage XML logs.

A usage folder holds any number of VODUsage*.xml files. Each file lists
finished sessions in the urn:eventis:vodusage:2.0 namespace:

	<VODUsage xmlns="urn:eventis:vodusage:2.0">
	  <FinishedSessions>
	    <FinishedSession>
	      <AssetId>asset-1</AssetId>
	      <SessionPeriod startDate="2013-08-29T10:00:00Z" endDate="2013-08-29T10:45:00Z"/>
	    </FinishedSession>
	  </FinishedSessions>
	</VODUsage>

Timestamps are RFC 3339; timestamps without an offset are read in the
configured location. Sessions whose end is not after their start, or that
last longer than the plausibility limit, are corrupt log rows. They are
dropped and only counted.

Reading a large folder is slow, so Reader.FindOrRead memoizes the parsed
sessions in a snapshot store under the "sessions" key.
*/
package vodusage
