package sites

// Listing and detail pages modelled on the real proceedings sites, trimmed
// to the markup the extraction rules depend on.

const icmlListingURL = "http://proceedings.mlr.press/v37/"

const icmlListing = `
<html><body>
<h1>Proceedings of The 32nd International Conference on Machine Learning</h1>
<div class="paper">
  <p class="title">Batch Normalization: Accelerating Deep Network Training</p>
  <p class="details">
    <span class="authors">Sergey Ioffe,
		Christian Szegedy</span>; JMLR W&amp;CP 37 :448-456, 2015
  </p>
  <p class="links">
    [<a href="ioffe15.html">abs</a>][<a href="ioffe15.pdf">pdf</a>]
  </p>
</div>
<div class="paper">
  <p class="title">Trust Region Policy Optimization</p>
  <p class="details">
    <span class="authors">John Schulman,
		Sergey Levine,
		Pieter Abbeel</span>; JMLR W&amp;CP 37 :1889-1897, 2015
  </p>
  <p class="links">
    [<a href="schulman15.html">abs</a>][<a href="schulman15.pdf">pdf</a>]
  </p>
</div>
</body></html>
`

const icmlDetailIoffe = `
<html><body>
<h1>Batch Normalization</h1>
<div id="abstract">
  Training Deep Neural Networks is complicated by the fact that
  the distribution of each layer's inputs changes during training.
</div>
<ul><li><a href="http://proceedings.mlr.press/v37/ioffe15.pdf">Download PDF</a></li></ul>
</body></html>
`

const icmlDetailSchulman = `
<html><body>
<div id="abstract">We describe an iterative procedure for optimizing policies.</div>
<a href="schulman15.pdf">Download PDF</a>
</body></html>
`

const jmlrListingURL = "http://jmlr.csail.mit.edu/papers/v16"

const jmlrListing = `
<html><body>
<div id="content">
<h1>Volume 16</h1>
<dl>
<dt>Statistical Topological Data Analysis using Persistence Landscapes</dt>
<dd><b><i>Peter Bubenik</i></b>; 16(3):77&minus;102, 2015.
<br>[<a href="/papers/v16/bubenik15a.html">abs</a>][<a href="/papers/volume16/bubenik15a/bubenik15a.pdf">pdf</a>][<a href="/papers/v16/bubenik15a.bib">bib</a>]
</dd>
</dl>
<dl>
<dt>Iterative and Active Graph Clustering
  Using Trace Norm Minimization</dt>
<dd><b><i>Nir Ailon, Yudong Chen, Huan Xu</i></b>; 16(3):455&minus;490, 2015.
<br>[<a href="/papers/v16/ailon15a.html">abs</a>][<a href="/papers/volume16/ailon15a/ailon15a.pdf">pdf</a>]
</dd>
</dl>
</div>
<div id="fixed"><dl><dt>Not a paper</dt></dl></div>
</body></html>
`

const jmlrDetailBubenik = `
<html><body>
<div id="content">
<h2>Statistical Topological Data Analysis using Persistence Landscapes</h2>
<b><i>Peter Bubenik</i></b>; 16(3):77&minus;102, 2015.
<h3>Abstract</h3>
We define a new topological summary for data that we call the
<i>persistence landscape</i>.
<font color="gray"><p>[abs][<a target="_blank" href="/papers/volume16/bubenik15a/bubenik15a.pdf">pdf</a>][<a href="bubenik15a.bib">bib</a>]</p></font>
</div>
</body></html>
`

const jmlrDetailAilon = `
<html><body>
<div id="content">
<h2>Iterative and Active Graph Clustering Using Trace Norm Minimization</h2>
<b><i>Nir Ailon, Yudong Chen, Huan Xu</i></b>
<h3>Abstract</h3>
Graph clustering seeks to cluster nodes.
<font color="gray"><p>[<a href="/papers/volume16/ailon15a/ailon15a.pdf">pdf</a>]</p></font>
</div>
</body></html>
`

const nipsListingURL = "https://papers.nips.cc/book/advances-in-neural-information-processing-systems-28-2015"

const nipsListing = `
<html><body>
<div class="main-container">
<div class="main wrapper clearfix">
<h2 class="subtitle">Advances in Neural Information Processing Systems 28 (NIPS 2015)</h2>
<ul>
<li><a href="/paper/5666-double-or-nothing">Double or Nothing: Multiplicative Incentive Mechanisms</a> <a href="/author/nihar-bhadresh-shah-6883" class="author">Nihar Bhadresh Shah</a> <a href="/author/dengyong-zhou-6884" class="author">Dengyong Zhou</a></li>
<li><a href="/paper/5667-learning-with-symmetric-label-noise">Learning with Symmetric Label Noise</a> <a href="/author/brendan-van-rooyen-7045" class="author">Brendan van Rooyen</a></li>
</ul>
</div>
</div>
</body></html>
`

const nipsDetailShah = `
<html><body>
<h2 class="subtitle">Double or Nothing: Multiplicative Incentive Mechanisms</h2>
<a href="/paper/5666-double-or-nothing.pdf">[PDF]</a> <a href="/paper/5666-double-or-nothing/bibtex">[BibTeX]</a>
<h3>Abstract</h3>
<p class="abstract">Crowdsourcing has gained immense popularity in machine learning.</p>
</body></html>
`

const nipsDetailRooyen = `
<html><body>
<a href="/paper/5667-learning-with-symmetric-label-noise.pdf">[PDF]</a>
<p class="abstract">Abstract Missing</p>
</body></html>
`

const cvfListingURL = "http://openaccess.thecvf.com/CVPR2015.py"

const cvfListing = `
<html><body>
<div id="content">
<dl>
<dt class="ptitle"><br><a href="content_cvpr_2015/html/He_Deep_Residual_CVPR_2015_paper.html">Deep Residual Learning</a></dt>
<dd>
<form id="form-kaiming" action="CVPR2015_search.py" method="post" class="authsearch"><input type="hidden" name="query_author" value="Kaiming He"><a href="#" onclick="document.getElementById('form-kaiming').submit();">Kaiming He</a>,</form>
<form id="form-xiangyu" action="CVPR2015_search.py" method="post" class="authsearch"><input type="hidden" name="query_author" value="Xiangyu Zhang"><a href="#" onclick="document.getElementById('form-xiangyu').submit();">Xiangyu Zhang</a></form>
</dd>
<dd>
[<a href="content_cvpr_2015/papers/He_Deep_Residual_CVPR_2015_paper.pdf">pdf</a>]
<div class="link2">[<a class="fakelink" onclick="$(this).siblings('.bibref').slideToggle()">bibtex</a>]</div>
</dd>
<dt class="ptitle"><br><a href="content_cvpr_2015/html/Long_Fully_Convolutional_CVPR_2015_paper.html">Fully Convolutional Networks</a></dt>
<dd>
<form id="form-long" class="authsearch"><a href="#">Jonathan Long</a></form>
</dd>
<dd>
[<a href="content_cvpr_2015/papers/Long_Fully_Convolutional_CVPR_2015_paper.pdf">pdf</a>]
</dd>
<dt class="ptitle"><br><a href="content_cvpr_2015/html/Szegedy_Going_Deeper_CVPR_2015_paper.html">Going Deeper With Convolutions</a></dt>
<dd>Christian Szegedy, Wei Liu</dd>
<dd>
[<a href="content_cvpr_2015/papers/Szegedy_Going_Deeper_CVPR_2015_paper.pdf">pdf</a>]
</dd>
</dl>
</div>
</body></html>
`

const cvfDetailHe = `<html><body><div id="papertitle">Deep Residual Learning</div><div id="abstract">Deeper neural networks are more difficult to train.</div></body></html>`
const cvfDetailLong = `<html><body><div id="abstract">Convolutional networks are powerful visual models.</div></body></html>`
const cvfDetailSzegedy = `<html><body><div id="abstract">We propose a deep convolutional neural network architecture.</div></body></html>`

const aclListingURL = "http://www.aclweb.org/anthology/P/P15/"

// aclListing is written as Latin-1 bytes: \xe9 is "é" and \x96 an en dash in
// windows-1252, and invalid as UTF-8.
const aclListing = "<html><head><meta charset=\"utf-8\"></head><body>\n" +
	"<h1>Proceedings of ACL 2015</h1>\n" +
	"<p><a href=\"P15-1000.pdf\">P15-1000</a>: <b></b><br><i>Front Matter</i></p>\n" +
	"<p><a href=\"P15-1001.pdf\">P15-1001</a> [<a href=\"P15-1001.bib\">bib</a>]: <b>Jos\xe9 Camacho-Collados; Roberto Navigli</b><br><i>NASARI \x96 a Novel Approach</i></p>\n" +
	"<p><a href=\"P15-1002.pdf\">P15-1002</a>: <b>Kai Sheng Tai; Richard Socher</b><br><i>Improved Semantic Representations</i></p>\n" +
	"<p>Back to the <a href=\"../../index.html\">index</a></p>\n" +
	"</body></html>"

const jmlrFeedURL = "http://www.jmlr.org/jmlr.xml"

const jmlrFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>JMLR</title>
<link>http://www.jmlr.org</link>
<description>Journal of Machine Learning Research</description>
<item>
<title>Statistical Topological Data Analysis using Persistence Landscapes</title>
<link>/papers/v16/bubenik15a.html</link>
<pubDate>Mon, 05 Jan 2015 00:00:00 GMT</pubDate>
</item>
<item>
<title>Iterative and Active Graph Clustering Using Trace Norm Minimization</title>
<link>http://www.jmlr.org/papers/v16/ailon15a.html</link>
<pubDate>Sun, 01 Mar 2015 00:00:00 GMT</pubDate>
</item>
</channel>
</rss>`
